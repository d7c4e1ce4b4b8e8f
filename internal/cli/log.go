package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"example.com/attendance/internal/domain"
)

var (
	logUser int64
	logDate string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print every entry of a user's daily log",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().Int64Var(&logUser, "user", 0, "Telegram user id")
	logCmd.Flags().StringVar(&logDate, "date", "", "Log date YYYY-MM-DD (default: today)")
	_ = logCmd.MarkFlagRequired("user")
}

var categoryColors = map[domain.Category]*color.Color{
	domain.CategoryWork:       color.New(color.FgGreen, color.Bold),
	domain.CategoryEat:        color.New(color.FgYellow),
	domain.CategoryToilet:     color.New(color.FgCyan),
	domain.CategorySmoke:      color.New(color.FgMagenta),
	domain.CategorySessionEnd: color.New(color.FgRed, color.Bold),
}

func runLog(cmd *cobra.Command, args []string) error {
	date, err := resolveDate(logDate)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	log, err := store.Repository.Get(cmd.Context(), logUser, date)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if log == nil || len(log.Activities) == 0 {
		fmt.Fprintf(out, "no activity for user %d on %s\n", logUser, date)
		return nil
	}

	fmt.Fprintf(out, "user %d  %s  (version %d)\n", log.UserID, log.Date, log.Version)
	for _, e := range log.Activities {
		printEntry(out, e)
	}

	totals := domain.Aggregate(log.CurrentSession())
	fmt.Fprintf(out, "current session: total %s, net work %s\n",
		domain.FormatDuration(totals.TotalMinutes),
		domain.FormatDuration(totals.NetWorkMinutes))
	return nil
}

func printEntry(out io.Writer, e domain.ActivityEntry) {
	c, ok := categoryColors[e.Category]
	if !ok {
		c = color.New(color.Reset)
	}
	name := c.Sprintf("%-10s", e.Category)

	switch {
	case e.Category == domain.CategorySessionEnd:
		fmt.Fprintf(out, "  %s %s\n", name, e.Start)
	case !e.Closed():
		fmt.Fprintf(out, "  %s %s - ...      (open)\n", name, e.Start)
	default:
		fmt.Fprintf(out, "  %s %s - %s %s\n", name, e.Start, e.End, domain.FormatDuration(e.DurationMinutes()))
	}
}
