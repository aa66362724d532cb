// Command migrate manages the PostgreSQL schema of the lifecycle engine.
//
// Without --path it applies the schema embedded in the binary; with --path it
// reads migrations from a directory, which is also where create writes new ones.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/infrastructure/migration"
	"github.com/fixflow/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

type options struct {
	path     string
	logLevel string
	log      *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "", "migrations directory (default: embedded schema)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		migratorCommand(opts, &cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs},
			func(ctx context.Context, m *migration.Migrator, _ []string) error { return m.Up(ctx) }),
		migratorCommand(opts, &cobra.Command{Use: "step <n>", Short: "Apply n migrations (negative rolls back)", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(ctx, n)
			}),
		migratorCommand(opts, &cobra.Command{Use: "goto <version>", Short: "Migrate to a specific version", Args: cobra.ExactArgs(1)},
			func(ctx context.Context, m *migration.Migrator, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(ctx, uint(version))
			}),
		migratorCommand(opts, &cobra.Command{Use: "status", Aliases: []string{"version"}, Short: "Show the applied and latest versions", Args: cobra.NoArgs},
			func(_ context.Context, m *migration.Migrator, _ []string) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				opts.log.Info("Schema status",
					zap.Uint("version", status.Version),
					zap.Uint("latest", status.Latest),
					zap.Bool("dirty", status.Dirty),
					zap.Bool("pending", status.Pending()),
				)
				return nil
			}),
		migratorCommand(opts, &cobra.Command{Use: "force <version>", Short: "Record a version without running migrations", Args: cobra.ExactArgs(1)},
			func(_ context.Context, m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(version)
			}),
		destructiveCommand(opts, &cobra.Command{Use: "down", Short: "Roll back every migration", Args: cobra.NoArgs},
			func(ctx context.Context, m *migration.Migrator) error { return m.Down(ctx) }),
		destructiveCommand(opts, &cobra.Command{Use: "drop", Short: "Drop every database object", Args: cobra.NoArgs},
			func(_ context.Context, m *migration.Migrator) error { return m.Drop() }),
		newCreateCommand(opts),
		newListCommand(opts),
	)
	return root
}

// source returns the migration files selected by --path
func (o *options) source() fs.FS {
	if o.path == "" {
		return migrations.FS
	}
	return os.DirFS(o.path)
}

// migratorCommand wires run to a Migrator connected to the configured database
func migratorCommand(opts *options, cmd *cobra.Command, run func(context.Context, *migration.Migrator, []string) error) *cobra.Command {
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		m, err := migration.New(db, opts.source(), opts.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				opts.log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()

		return run(cmd.Context(), m, args)
	}
	return cmd
}

// destructiveCommand requires --confirm before running
func destructiveCommand(opts *options, cmd *cobra.Command, run func(context.Context, *migration.Migrator) error) *cobra.Command {
	var confirm bool
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the loss of data")
	return migratorCommand(opts, cmd, func(ctx context.Context, m *migration.Migrator, _ []string) error {
		if !confirm {
			return errors.New(cmd.Name() + " destroys data; rerun with --confirm")
		}
		return run(ctx, m)
	})
}

func newCreateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.path
			if dir == "" {
				dir = defaultMigrationsDir
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := migration.ListMigrations(opts.source())
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%06d  %s\n", f.Version, f.Name)
			}
			return nil
		},
	}
}
