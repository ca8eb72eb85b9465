package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Respect the container CPU quota, the runner pool size is not tied to it.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	}))
	os.Exit(run(os.Args[1:]))
}
