package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xpoints/pointdb"
	"github.com/benz9527/xpoints/xlog"
)

const unrecognized = "Unrecognized command."

// Processor runs commands against one database and writes the human
// readable results. It is as single-threaded as the database.
type Processor struct {
	db     *pointdb.Database
	w      io.Writer
	logger xlog.XLogger
	err    error
}

func NewProcessor(db *pointdb.Database, w io.Writer, logger xlog.XLogger) *Processor {
	return &Processor{db: db, w: w, logger: logger}
}

func (p *Processor) println(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Processor) warn(ctx context.Context, msg string, fields ...zap.Field) {
	if p.logger == nil {
		return
	}
	p.logger.WarnContext(ctx, msg, fields...)
}

// Exec returns the first error met while writing the output.
func (p *Processor) Exec(ctx context.Context, cmd Command) error {
	db := p.db
	switch cmd.Verb {
	case Insert:
		if !db.Insert(cmd.Name, cmd.X, cmd.Y) {
			p.warn(ctx, "point rejected", zap.String("name", cmd.Name), zap.Int("x", cmd.X), zap.Int("y", cmd.Y))
			p.println("Point rejected: %s %d %d", cmd.Name, cmd.X, cmd.Y)
			break
		}
		p.println("Point inserted: %s %d %d", cmd.Name, cmd.X, cmd.Y)
	case RemoveByName:
		removed := db.RemoveByName(cmd.Name)
		if removed == nil {
			p.println("Point not removed: %s", cmd.Name)
			break
		}
		p.println("Point removed: %s", removed)
	case RemoveByPosition:
		removed, ok := db.RemoveByPosition(cmd.X, cmd.Y)
		if !ok {
			p.warn(ctx, "point rejected", zap.Int("x", cmd.X), zap.Int("y", cmd.Y))
			p.println("Point rejected: %d %d", cmd.X, cmd.Y)
			break
		}
		if removed == nil {
			p.println("Point not found: %d %d", cmd.X, cmd.Y)
			break
		}
		p.println("Point removed: %s", removed)
	case RegionSearch:
		result, ok := db.RegionSearch(cmd.X, cmd.Y, cmd.W, cmd.H)
		if !ok {
			p.warn(ctx, "rectangle rejected", zap.Int("w", cmd.W), zap.Int("h", cmd.H))
			p.println("Rectangle rejected: %d %d %d %d", cmd.X, cmd.Y, cmd.W, cmd.H)
			break
		}
		p.println("Points intersecting region %d %d %d %d:", cmd.X, cmd.Y, cmd.W, cmd.H)
		for _, pt := range result.Points {
			p.println("Point found %s", pt)
		}
		p.println("%d quadtree nodes visited", result.Visited)
	case Duplicates:
		p.println("Duplicate points:")
		for _, loc := range db.FindDuplicates() {
			p.println("%s", loc)
		}
	case Search:
		found := db.Search(cmd.Name)
		if len(found) == 0 {
			p.println("Point not found: %s", cmd.Name)
			break
		}
		for _, pt := range found {
			p.println("Found %s", pt)
		}
	case Dump:
		if p.err == nil {
			_, p.err = io.WriteString(p.w, db.Dump())
		}
	default:
		p.println(unrecognized)
	}
	return p.err
}

// ExecLine prints "Unrecognized command." for a line that does not parse
// and returns the parse error.
func (p *Processor) ExecLine(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		p.warn(ctx, "unrecognized command", zap.String("line", line), zap.Error(err))
		p.println(unrecognized)
		if p.err != nil {
			return p.err
		}
		return err
	}
	return p.Exec(ctx, cmd)
}

// Run executes the script line by line, blank lines are skipped. The
// parse errors are collected and returned together, a write error or
// the ctx cancellation stops the run.
func (p *Processor) Run(ctx context.Context, r io.Reader) error {
	var (
		scanner = bufio.NewScanner(r)
		merr    error
		lineNo  int
	)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(merr, err)
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if err := p.ExecLine(ctx, line); err != nil {
			if p.err != nil {
				return multierr.Append(merr, p.err)
			}
			merr = multierr.Append(merr, fmt.Errorf("line %d: %w", lineNo, err))
		}
	}
	return multierr.Append(merr, scanner.Err())
}
