package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"example.com/attendance/internal/router"
	"example.com/attendance/internal/summary"
)

var (
	summaryUser int64
	summaryDate string
	summaryName string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Render the current session summary of a user",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().Int64Var(&summaryUser, "user", 0, "Telegram user id")
	summaryCmd.Flags().StringVar(&summaryDate, "date", "", "Log date YYYY-MM-DD (default: today)")
	summaryCmd.Flags().StringVar(&summaryName, "name", router.DefaultUserName, "Display name shown in the summary")
	_ = summaryCmd.MarkFlagRequired("user")
}

func runSummary(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(summaryDate)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	log, err := store.Repository.Get(cmd.Context(), summaryUser, date)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.Build(log, summaryName).PlainText())
	return nil
}
