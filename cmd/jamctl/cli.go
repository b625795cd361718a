package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"jamsession/internal/app"
	"jamsession/pkg/geocode"
)

var errUsage = errors.New("usage")

// console prints notifications to the terminal and logs navigation.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, "»", msg)
}

func (c *console) Navigate(route string) {
	slog.Debug("navigate", "route", route)
}

// cli runs one command line against the wired application.
type cli struct {
	app      *app.App
	geocoder *geocode.Client
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
}

func newCLI(rt *runtime, in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		app:      rt.app,
		geocoder: rt.geocoder,
		in:       bufio.NewReader(in),
		out:      out,
		errOut:   errOut,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "logout":
		c.app.Auth.Logout(true)
		return nil
	case "whoami":
		return c.whoami(ctx)
	case "users":
		return c.users(ctx, rest)
	case "ratings":
		return c.ratings(ctx, rest)
	case "sessions":
		return c.sessions(ctx, rest)
	case "comments":
		return c.comments(ctx, rest)
	case "instruments":
		return c.instruments(ctx, rest)
	case "genres":
		return c.genres(ctx, rest)
	case "admin":
		return c.admin(ctx, rest)
	case "image":
		return c.image(ctx, rest)
	case "geocode":
		return c.geocode(ctx, rest)
	case "shell":
		return c.shell(ctx)
	case "help":
		printUsage(c.out)
		return nil
	default:
		return usageErr("unknown command %q", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: jamctl [-config path] <command> [args]

commands:
  login [-email e] [-password p]
  register -name n -email e [-password p]
  logout
  whoami
  users list [-genre g] [-instrument i]
  users show <id>
  users edit [-id id] [-name n] [-email e] [-bio b] [-genres 1,2] [-password p]
  users picture [-id id] <file>
  ratings add <instrumentId>=<rating>...
  ratings delete <ratingId>
  sessions list [-genre g] [-instrument i]
  sessions own|signed-up [-user id]
  sessions show [-refresh] <id>
  sessions create -date YYYY-MM-DD -time HH:MM -lat f -lng f -genre id -instruments 1x2,3
  sessions edit <id> [-start t] [-lat f -lng f] [-genre id] [-required 1,1,3]
  sessions delete <id>
  sessions join <id> <instrument>
  sessions leave <id>
  sessions kick <id> <userId>
  comments list <sessionId>
  comments add [-reply id] [-image file] <sessionId> <message>
  comments delete <sessionId> <commentId>
  comments react <sessionId> <commentId> <LIKE|LOVE|HAHA|SAD|ANGRY>
  instruments
  genres
  admin
  admin genres|instruments add <name>
  admin genres|instruments remove <id>
  image [-o file] <path>
  geocode <lat> <lng>
  shell
`)
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

// currentUser returns the logged in user id or fails.
func (c *cli) currentUser() (int64, error) {
	id, ok := c.app.Auth.CurrentUserID()
	if !ok {
		return 0, app.ErrNotLoggedIn
	}
	return id, nil
}

// userOrCurrent returns id when set, else the logged in user.
func (c *cli) userOrCurrent(id int64) (int64, error) {
	if id > 0 {
		return id, nil
	}
	return c.currentUser()
}

// prompt reads one line, used when a secret was not passed as a flag.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.errOut, label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErr("invalid %s %q", what, s)
	}
	return id, nil
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parseID(part, "id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func argIDs(args []string, whats ...string) ([]int64, error) {
	if len(args) != len(whats) {
		return nil, usageErr("expected %s", strings.Join(whats, " "))
	}
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := parseID(a, whats[i])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
