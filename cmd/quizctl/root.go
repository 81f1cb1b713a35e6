package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"testtaker/internal/auth"
	"testtaker/internal/config"
	"testtaker/internal/repository/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "quizctl",
	Short: "quizctl - operator tooling for the Test Taker backend",
	Long: "quizctl migrates the schema, inspects stored folders, tests and attempts, " +
		"and prepares quiz files. It reads the same environment as the server.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnvFiles()
	},
}

func init() {
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newStampIDsCmd())
	rootCmd.AddCommand(newSeedSampleCmd())
}

// env is the database-backed context shared by commands
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	repos  *postgres.RepositoryConfig
}

// connect loads configuration and opens the database for the configured table prefix
func connect(ctx context.Context) (*env, error) {
	cfg := config.Load()
	if cfg.SupabaseDBURL == "" {
		return nil, errors.New("SUPABASE_DB_URL is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		repos: &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		},
	}, nil
}

func (e *env) Close() {
	e.pool.Close()
}

// resolveUser accepts a user ID or an email address. Emails are looked up
// through the Admin API, which needs the service role key.
func (e *env) resolveUser(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("--user is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id.String(), nil
	}
	if !strings.Contains(ref, "@") {
		return "", fmt.Errorf("--user must be a user ID or an email address, got %q", ref)
	}
	if e.cfg.SupabaseURL == "" || e.cfg.SupabaseServiceKey == "" {
		return "", errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required to look up users by email")
	}

	user, err := auth.NewAdminClient(e.cfg.SupabaseURL, e.cfg.SupabaseServiceKey).FindUserByEmail(ctx, ref)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
