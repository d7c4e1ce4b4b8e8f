package cli

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"example.com/attendance/internal/config"
	"example.com/attendance/internal/persistence/postgres"
	"example.com/attendance/internal/persistence/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()
	out := cmd.OutOrStdout()

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "postgres schema up to date")
		}
		for _, name := range applied {
			fmt.Fprintf(out, "applied %s\n", name)
		}
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer repo.Close()

		version, err := repo.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "sqlite schema at version %d (%s)\n", version, repo.Path())
	case config.DriverMemory:
		fmt.Fprintln(out, "memory driver has no schema")
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	return nil
}
