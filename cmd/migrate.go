package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

type migrateConfig struct {
	DatabaseURL    string
	MigrationsPath string
}

func init() {
	rootCmd.AddCommand(newMigrateCommand())
}

func newMigrateCommand() *cobra.Command {
	cfg := migrateConfig{}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run authcore schema migration routines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	migrateCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", "", "Database connection URL. Can also be set via AUTHCORE_MIGRATE_DATABASE_URL.")
	migrateCmd.PersistentFlags().StringVar(&cfg.MigrationsPath, "migrations-path", "", "Path or source URL for migration files. Defaults to pkg/storage/postgres/migrations.")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up [steps]",
		Short: "Run schema migrations up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, hasSteps, err := parseMigrationStepsArg(args)
			if err != nil {
				return err
			}

			runner, sourceURL, err := newMigrationRunner(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := closeMigrationRunner(runner); closeErr != nil {
					cmd.PrintErrf("warning: failed to close migration runner cleanly: %v\n", closeErr)
				}
			}()

			if hasSteps {
				err = runner.Steps(steps)
			} else {
				err = runner.Up()
			}

			if err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					cmd.Println("No schema changes to apply.")
					return nil
				}
				return fmt.Errorf("apply migrations: %w", err)
			}

			cmd.Printf("Applied migrations from %s\n", sourceURL)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down <steps>",
		Short: "Rollback schema migrations down by step count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _, err := parseMigrationStepsArg(args)
			if err != nil {
				return err
			}

			runner, sourceURL, err := newMigrationRunner(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := closeMigrationRunner(runner); closeErr != nil {
					cmd.PrintErrf("warning: failed to close migration runner cleanly: %v\n", closeErr)
				}
			}()

			if err := runner.Steps(-steps); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					cmd.Println("No schema changes to roll back.")
					return nil
				}
				return fmt.Errorf("rollback migrations: %w", err)
			}

			cmd.Printf("Rolled back %d migration step(s) from %s\n", steps, sourceURL)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, err := newMigrationRunner(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := closeMigrationRunner(runner); closeErr != nil {
					cmd.PrintErrf("warning: failed to close migration runner cleanly: %v\n", closeErr)
				}
			}()

			version, dirty, err := runner.Version()
			if err != nil {
				if errors.Is(err, migrate.ErrNilVersion) {
					cmd.Println("No migrations applied yet.")
					return nil
				}
				return fmt.Errorf("read migration version: %w", err)
			}

			if dirty {
				cmd.Printf("Version %d (dirty)\n", version)
				return nil
			}
			cmd.Printf("Version %d\n", version)
			return nil
		},
	})

	return migrateCmd
}

func newMigrationRunner(cfg migrateConfig) (*migrate.Migrate, string, error) {
	databaseURL := cfg.DatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("AUTHCORE_MIGRATE_DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, "", errors.New("database URL is required: pass --database-url or set AUTHCORE_MIGRATE_DATABASE_URL")
	}

	sourceURL, err := resolveMigrationsSource(cfg.MigrationsPath)
	if err != nil {
		return nil, "", err
	}

	runner, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("initialize migration runner: %w", err)
	}

	return runner, sourceURL, nil
}

func resolveMigrationsSource(migrationsPath string) (string, error) {
	if migrationsPath == "" {
		migrationsPath = filepath.Join("pkg", "storage", "postgres", "migrations")
	}

	// Already a source URL, pass it through untouched.
	if strings.Contains(migrationsPath, "://") {
		return migrationsPath, nil
	}

	absolute, err := filepath.Abs(migrationsPath)
	if err != nil {
		return "", fmt.Errorf("resolve migrations path: %w", err)
	}
	if _, err := os.Stat(absolute); err != nil {
		return "", fmt.Errorf("migrations path %s: %w", absolute, err)
	}

	return "file://" + absolute, nil
}

func closeMigrationRunner(runner *migrate.Migrate) error {
	sourceErr, dbErr := runner.Close()
	return errors.Join(sourceErr, dbErr)
}

func parseMigrationStepsArg(args []string) (int, bool, error) {
	if len(args) == 0 {
		return 0, false, nil
	}

	steps, err := strconv.Atoi(args[0])
	if err != nil || steps <= 0 {
		return 0, false, fmt.Errorf("steps must be a positive integer, got %q", args[0])
	}

	return steps, true, nil
}
