package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harlequingg/todo-assistant/internal/client"
	"github.com/harlequingg/todo-assistant/internal/todo"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "dashboard.yaml", "dashboard configuration file")
	flag.Parse()

	cfg := mustLoadConfig(configPath)
	log := mustMakeLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := client.New(log, cfg.APIURL, cfg.APITimeout)
	if err := gw.Ping(ctx); err != nil {
		log.Error("api server is not reachable", "url", cfg.APIURL, "error", err)
	}

	sh := newShell(cfg, log, os.Stdout, gw, todo.NewFileSession(cfg.SessionFile))
	sh.restore(ctx)

	in := bufio.NewScanner(os.Stdin)
	sh.prompt()
	for in.Scan() {
		if ctx.Err() != nil {
			break
		}
		if quit := sh.exec(ctx, in.Text()); quit {
			return
		}
		sh.prompt()
	}
	fmt.Println()
}

func mustMakeLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
