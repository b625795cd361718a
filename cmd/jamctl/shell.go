package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"jamsession/internal/util"
)

const shellPrompt = "jam> "

// shell reads commands until EOF or "exit". Caches live for the whole
// shell session.
func (c *cli) shell(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(c.out, shellPrompt)
		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)
		args, perr := splitArgs(line)
		switch {
		case perr != nil:
			fmt.Fprintln(c.errOut, "error:", perr)
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			return nil
		case args[0] == "shell":
			fmt.Fprintln(c.errOut, "already in a shell")
		default:
			if err := c.run(util.WithRequestID(ctx, ""), args); err != nil {
				fmt.Fprintln(c.errOut, "error:", err)
			}
		}
		if eof {
			fmt.Fprintln(c.out)
			return nil
		}
	}
}

// splitArgs splits a line on spaces, keeping single or double quoted
// parts together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		pending bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			pending = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if pending {
		args = append(args, cur.String())
	}
	return args, nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
