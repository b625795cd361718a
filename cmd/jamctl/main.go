// Command jamctl is the command line front-end of the jam session platform.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jamsession/internal/config"
	"jamsession/internal/util"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	flags := flag.NewFlagSet("jamctl", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to config file (default "+config.ConfigPath+")")
	flags.Usage = func() { printUsage(flags.Output()) }
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		printUsage(os.Stderr)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	logger := util.InitLogger(cfg.LogLevel)

	deps, err := build(cfg, newConsole(os.Stderr))
	if err != nil {
		logger.Error("failed to init client", "err", err)
		return 1
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := deps.app.Auth.Restore(ctx); err != nil {
		logger.Warn("restore session failed", "err", err)
	}

	c := newCLI(deps, os.Stdin, os.Stdout, os.Stderr)
	if err := c.run(util.WithRequestID(ctx, ""), flags.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
