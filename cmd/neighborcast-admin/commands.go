package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/neighborcast/neighborcast-api/internal/bootstrap"
	"github.com/neighborcast/neighborcast-api/internal/devseed"
	"github.com/neighborcast/neighborcast-api/internal/migrate"
)

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 30 * time.Second
)

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum time to wait for migrations")
	fs.BoolVar(&opts.Status, "status", false, "List migrations and whether they are applied")
	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	infra, err := connectInfra(ctx, cmdCtx.Logger, &cmdCtx.Config, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	if opts.Status {
		statuses, err := migrate.GetStatus(ctx, infra.DB)
		if err != nil {
			return err
		}
		return printMigrationStatus(cmdCtx.Out, statuses)
	}

	cmdCtx.Logger.Info("running database migrations")
	applied, err := migrate.Run(ctx, infra.DB, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return writef(cmdCtx.Out, "schema is up to date\n")
	}
	return writef(cmdCtx.Out, "applied %d migration(s): %s\n", len(applied), strings.Join(applied, ", "))
}

func printMigrationStatus(w io.Writer, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "VERSION\tAPPLIED AT\n"); err != nil {
		return err
	}
	for _, s := range statuses {
		applied := "pending"
		if s.Applied() {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		if err := writef(tw, "%s\t%s\n", s.Version, applied); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type jobStatsOptions struct {
	Query string
}

func parseJobStatsFlags(args []string) (jobStatsOptions, error) {
	fs := flag.NewFlagSet("job-stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts jobStatsOptions
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the stats JSON, e.g. by_status.error")
	if err := fs.Parse(args); err != nil {
		return jobStatsOptions{}, err
	}
	if err := validateQuery(opts.Query); err != nil {
		return jobStatsOptions{}, err
	}
	return opts, nil
}

func runJobStats(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobStatsFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	cmdCtx.Ctx = ctx

	return withServices(cmdCtx, false, func(ctx context.Context, svcs *bootstrap.ServiceContainer) error {
		stats, err := svcs.Jobs.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmdCtx.Out, stats, opts.Query)
	})
}

type idOptions struct {
	ID    string
	Actor string
}

func parseIDFlags(name string, args []string) (idOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts idOptions
	fs.StringVar(&opts.Actor, "actor", defaultActor(), "Identity recorded as the requester")
	if err := fs.Parse(args); err != nil {
		return idOptions{}, err
	}
	if fs.NArg() != 1 {
		return idOptions{}, fmt.Errorf("usage: neighborcast-admin %s [--actor NAME] <id>", name)
	}
	opts.ID = strings.TrimSpace(fs.Arg(0))
	opts.Actor = strings.TrimSpace(opts.Actor)
	if opts.ID == "" {
		return idOptions{}, errors.New("id is required")
	}
	if opts.Actor == "" {
		return idOptions{}, errors.New("--actor must not be empty")
	}
	return opts, nil
}

func defaultActor() string {
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return "admin:" + u
	}
	return "admin:neighborcast-admin"
}

func runRetryJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseIDFlags("retry-job", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	cmdCtx.Ctx = ctx

	return withServices(cmdCtx, false, func(ctx context.Context, svcs *bootstrap.ServiceContainer) error {
		job, err := svcs.Jobs.Retry(ctx, opts.ID, opts.Actor)
		if err != nil {
			return err
		}
		return printJSON(cmdCtx.Out, job, "")
	})
}

func runActivateConfig(cmdCtx *commandContext, args []string) error {
	opts, err := parseIDFlags("activate-config", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	cmdCtx.Ctx = ctx

	return withServices(cmdCtx, true, func(ctx context.Context, svcs *bootstrap.ServiceContainer) error {
		if svcs.Repos.Cache == nil {
			cmdCtx.Logger.Warn("redis unavailable; other replicas keep their local entry until it expires")
		}
		res, err := svcs.Cutover.Activate(ctx, opts.ID, opts.Actor)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			cmdCtx.Logger.Warn("cutover warning", "warning", w)
		}
		return printJSON(cmdCtx.Out, res, "")
	})
}

func runActiveConfig(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("active-config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	cmdCtx.Ctx = ctx

	return withServices(cmdCtx, true, func(ctx context.Context, svcs *bootstrap.ServiceContainer) error {
		id, err := svcs.Cutover.Active(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmdCtx.Out, map[string]string{"config_id": id}, "")
	})
}

func parseSeedFlags(args []string) (bool, error) {
	fs := flag.NewFlagSet("seed-dev", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	force := fs.Bool("force", false, "Seed even when DEV is not set")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return *force, nil
}

func runSeedDev(cmdCtx *commandContext, args []string) error {
	force, err := parseSeedFlags(args)
	if err != nil {
		return err
	}
	if !cmdCtx.Config.IsDev && !force {
		return errors.New("seed-dev refuses to run outside DEV mode; pass --force to override")
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	cmdCtx.Ctx = ctx

	return withServices(cmdCtx, true, func(ctx context.Context, svcs *bootstrap.ServiceContainer) error {
		res, err := devseed.Run(ctx, devseed.Options{
			DB:      svcs.Repos.DB,
			Cutover: svcs.Cutover,
			Logger:  cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		return printJSON(cmdCtx.Out, res, "")
	})
}
