package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownCommand = errors.New("[script] unknown command")
	ErrBadArguments   = errors.New("[script] bad command arguments")
)

type Verb uint8

const (
	Insert Verb = iota + 1
	RemoveByName
	RemoveByPosition
	RegionSearch
	Duplicates
	Search
	Dump
)

func (v Verb) String() string {
	switch v {
	case Insert:
		return "insert"
	case RemoveByName, RemoveByPosition:
		return "remove"
	case RegionSearch:
		return "regionsearch"
	case Duplicates:
		return "duplicates"
	case Search:
		return "search"
	case Dump:
		return "dump"
	}
	return "Verb(" + strconv.Itoa(int(v)) + ")"
}

// Command is one parsed script line. Only the fields used by the verb
// are set.
type Command struct {
	Verb       Verb
	Name       string
	X, Y, W, H int
}

func atoi(line string, fields []string) ([]int, error) {
	res := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q in %q is not an integer", ErrBadArguments, f, line)
		}
		res = append(res, i)
	}
	return res, nil
}

func arity(line string, fields []string, n int) error {
	if len(fields) != n {
		return fmt.Errorf("%w: %q expects %d arguments", ErrBadArguments, line, n-1)
	}
	return nil
}

// Parse splits the line by whitespace, the verb is case-insensitive.
// "remove" with one argument removes by name, with two by position.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}

	switch verb := strings.ToLower(fields[0]); verb {
	case "insert":
		if err := arity(line, fields, 4); err != nil {
			return Command{}, err
		}
		xy, err := atoi(line, fields[2:])
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: Insert, Name: fields[1], X: xy[0], Y: xy[1]}, nil
	case "remove":
		switch len(fields) {
		case 2:
			return Command{Verb: RemoveByName, Name: fields[1]}, nil
		case 3:
			xy, err := atoi(line, fields[1:])
			if err != nil {
				return Command{}, err
			}
			return Command{Verb: RemoveByPosition, X: xy[0], Y: xy[1]}, nil
		}
		return Command{}, fmt.Errorf("%w: %q expects a name or x y", ErrBadArguments, line)
	case "regionsearch":
		if err := arity(line, fields, 5); err != nil {
			return Command{}, err
		}
		rect, err := atoi(line, fields[1:])
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: RegionSearch, X: rect[0], Y: rect[1], W: rect[2], H: rect[3]}, nil
	case "duplicates":
		if err := arity(line, fields, 1); err != nil {
			return Command{}, err
		}
		return Command{Verb: Duplicates}, nil
	case "search":
		if err := arity(line, fields, 2); err != nil {
			return Command{}, err
		}
		return Command{Verb: Search, Name: fields[1]}, nil
	case "dump":
		if err := arity(line, fields, 1); err != nil {
			return Command{}, err
		}
		return Command{Verb: Dump}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, verb)
	}
}
