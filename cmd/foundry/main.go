package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/eringen/foundry"
	"github.com/eringen/foundry/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "templates":
		err = runTemplates(os.Args[2:])
	case "version", "--version":
		fmt.Printf("foundry %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "config file (default ./foundry.yaml)")
	addr := flags.String("addr", "", "listen address, overrides the config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := foundry.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	app := foundry.New(cfg, views.Site{Name: cfg.Name}.Funcs())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		if cerr := app.Close(); err == nil {
			err = cerr
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.Echo.Logger.Info("foundry: shutting down")
	return app.Shutdown(shutdownCtx)
}

func printUsage() {
	fmt.Println(`foundry - A type specimen studio built with Go, Echo, and templ

Usage:
  foundry <command> [arguments]

Commands:
  serve [--config file] [--addr addr]   Run the studio server
  init <dir> [--studio id]              Create a studio directory with a starter config
  templates [id] [--file catalog.yaml]  List and validate page templates
  version                               Print the foundry version
  help                                  Show this help message

Examples:
  foundry init mystudio
  cd mystudio && foundry serve
  FOUNDRY_ADDR=:8080 foundry serve`)
}
