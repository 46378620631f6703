package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/neighborcast/neighborcast-api/config"
	"github.com/neighborcast/neighborcast-api/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

func main() {
	// Logs go to stderr so command output on stdout stays machine readable.
	logger := bootstrap.NewLogger(bootstrap.LoggerOptions{Writer: os.Stderr, Level: slog.LevelInfo})

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.NewLogger(bootstrap.LoggerOptions{Writer: os.Stderr, Dev: cfg.IsDev, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, Out: os.Stdout}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations (--status lists them without applying)",
			run:         runMigrations,
		},
		"job-stats": {
			name:        "job-stats",
			description: "Print job statistics as JSON, optionally projected with --query",
			run:         runJobStats,
		},
		"retry-job": {
			name:        "retry-job",
			description: "Clone a failed or cancelled job as a new pending job",
			run:         runRetryJob,
		},
		"activate-config": {
			name:        "activate-config",
			description: "Make a weight configuration active and invalidate every cache tier",
			run:         runActivateConfig,
		},
		"active-config": {
			name:        "active-config",
			description: "Print the active weight configuration id",
			run:         runActiveConfig,
		},
		"seed-dev": {
			name:        "seed-dev",
			description: "Insert development fixtures and activate the default config (DEV only unless --force)",
			run:         runSeedDev,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: neighborcast-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-18s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
