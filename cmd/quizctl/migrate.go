package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"testtaker/db/migrations"
	"testtaker/internal/config"
	"testtaker/internal/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations for the configured table prefix",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *postgres.Migrator, cfg *config.Config) error {
				if err := mg.Up(); err != nil {
					return err
				}
				return printVersion(cmd, mg, cfg)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *postgres.Migrator, cfg *config.Config) error {
				if cfg.Environment == "prod" {
					return errors.New("refusing to roll back migrations in prod")
				}
				if err := mg.Down(steps); err != nil {
					return err
				}
				return printVersion(cmd, mg, cfg)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *postgres.Migrator, cfg *config.Config) error {
				return printVersion(cmd, mg, cfg)
			})
		},
	})

	return cmd
}

func withMigrator(fn func(mg *postgres.Migrator, cfg *config.Config) error) error {
	cfg := config.Load()
	if cfg.SupabaseDBURL == "" {
		return errors.New("SUPABASE_DB_URL is required")
	}

	mg, err := postgres.NewMigrator(cfg.SupabaseDBURL, cfg.TablePrefix, migrations.Files)
	if err != nil {
		return err
	}
	defer func() {
		_ = mg.Close()
	}()

	return fn(mg, cfg)
}

func printVersion(cmd *cobra.Command, mg *postgres.Migrator, cfg *config.Config) error {
	version, dirty, ok, err := mg.Version()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !ok:
		fmt.Fprintf(out, "prefix %q: no migrations applied\n", cfg.TablePrefix)
	case dirty:
		fmt.Fprintf(out, "prefix %q: version %d (dirty - fix the failed migration, then force the version)\n", cfg.TablePrefix, version)
	default:
		fmt.Fprintf(out, "prefix %q: version %d\n", cfg.TablePrefix, version)
	}
	return nil
}
