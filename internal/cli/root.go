// Package cli implements the attendancectl operator commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"example.com/attendance/internal/clock"
	"example.com/attendance/internal/config"
	"example.com/attendance/internal/storage"
)

var (
	driverFlag      string
	sqlitePathFlag  string
	postgresURLFlag string
	verboseFlag     bool
)

var rootCmd = &cobra.Command{
	Use:           "attendancectl",
	Short:         "Attendance bot operator tool",
	Long:          "Inspect attendance logs, render session summaries, migrate storage and mint operator tokens",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Storage driver: postgres, sqlite or memory (default: $STORAGE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&sqlitePathFlag, "sqlite-path", "", "SQLite database file (default: $SQLITE_PATH)")
	rootCmd.PersistentFlags().StringVar(&postgresURLFlag, "postgres-url", "", "Postgres connection string (default: $POSTGRES_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log storage activity to stderr")
}

func loadConfig() config.Config {
	cfg := config.Load()
	if driverFlag != "" {
		cfg.StorageDriver = strings.ToLower(driverFlag)
	}
	if sqlitePathFlag != "" {
		cfg.SQLitePath = sqlitePathFlag
	}
	if postgresURLFlag != "" {
		cfg.PostgresURL = postgresURLFlag
	}
	// One-shot commands never benefit from a warm cache.
	cfg.CacheTTL = time.Second
	return cfg
}

func commandLogger(cfg config.Config) *slog.Logger {
	if verboseFlag {
		return cfg.Logger()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(ctx context.Context) (*storage.Store, error) {
	cfg := loadConfig()
	return storage.Open(ctx, cfg, commandLogger(cfg))
}

func resolveDate(date string) (string, error) {
	if date == "" {
		return clock.NewTimeSource(clock.Real()).Today(), nil
	}
	if _, err := time.Parse(clock.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	return date, nil
}
