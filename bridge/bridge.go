// Package bridge runs console commands on a pseudo-terminal and feeds their
// output into the log queue, one entry per command or one per line.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/creack/pty"

	"cvision/logview"
)

// Sink receives output items; *logview.Queue is one.
type Sink interface {
	PushItem(it logview.Item)
}

type Options struct {
	Dir       string
	Env       []string // added to the current environment
	Cols      uint16
	Rows      uint16
	LineDelay time.Duration // pacing of each pushed line in the view
	// Stream collects the whole output into a single entry that grows line
	// by line. Otherwise each line is its own entry.
	Stream bool
}

var ErrNoCommand = errors.New("bridge: empty command")

// Clean strips terminal escapes and carriage returns from a line of output.
func Clean(line string) string {
	line = ansi.Strip(line)
	line = strings.ReplaceAll(line, "\r", "")
	return strings.TrimRight(line, " \t")
}

// Run starts argv on a pty and pushes its output to sink until the command
// exits or ctx is cancelled. It returns the command's exit error.
func Run(ctx context.Context, argv []string, sink Sink, opts Options) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrNoCommand
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), "TERM=dumb")
	cmd.Env = append(cmd.Env, opts.Env...)

	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	defer ptmx.Close()

	// Closing the pty unblocks the reader when ctx ends first.
	stop := context.AfterFunc(ctx, func() { ptmx.Close() })
	defer stop()

	open := false
	sc := bufio.NewScanner(ptmx)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := Clean(sc.Text())
		it := logview.Item{Text: line, Delay: opts.LineDelay}
		if opts.Stream {
			it.Open = true
			if open {
				it.Text = "\n" + line
				it.Append = true
			}
			open = true
		}
		sink.PushItem(it)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, syscall.EIO) && !errors.Is(err, os.ErrClosed) {
		log.Printf("Bridge: read %s: %v", argv[0], err)
	}
	if open {
		sink.PushItem(logview.Item{Append: true})
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

// Split breaks a command line into arguments. Single and double quotes group
// words; there is no escaping.
func Split(line string) []string {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		have  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			have = true
		case r == ' ' || r == '\t':
			if have {
				args = append(args, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if have {
		args = append(args, cur.String())
	}
	return args
}
