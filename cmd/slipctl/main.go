package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/slipmux/internal/config"
	"github.com/danmuck/slipmux/internal/logging"
)

func main() {
	path := flag.String("config", "slipmux.toml", "config path (.toml, .yaml or .yml)")
	printConfig := flag.Bool("print-config", false, "print the effective config as TOML and exit")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "slipctl: %v\n", err)
		os.Exit(1)
	}
	if *printConfig {
		out, err := config.Render(cfg, "toml")
		if err != nil {
			fmt.Fprintf(os.Stderr, "slipctl: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}
	if cfg.Log.Level != "" {
		logging.SetLevel(cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "slipctl: %v\n", err)
		os.Exit(1)
	}
}
