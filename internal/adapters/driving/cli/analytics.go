package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

var (
	analyticsFormat string
	analyticsLimit  int
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Inspect query logs and answer accuracy",
}

var analyticsLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent query logs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsLogs,
}

var analyticsAccuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Show the share of recent answers that cited a document",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsAccuracy,
}

func init() {
	analyticsCmd.PersistentFlags().StringVarP(&analyticsFormat, "format", "f", formatTable, "output format: table, json or yaml")
	analyticsLogsCmd.Flags().IntVarP(&analyticsLimit, "limit", "n", 0, "maximum number of logs (0 = configured default)")
	analyticsCmd.AddCommand(analyticsLogsCmd)
	analyticsCmd.AddCommand(analyticsAccuracyCmd)
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalyticsLogs(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}
	if err := validateFormat(analyticsFormat); err != nil {
		return err
	}
	if analyticsLimit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", analyticsLimit)
	}

	logs, err := analyticsService.RecentLogs(commandContext(cmd), capabilities(), analyticsLimit)
	if err != nil {
		return fmt.Errorf("failed to read query logs: %w", err)
	}

	if analyticsFormat != formatTable {
		if logs == nil {
			logs = []domain.QueryLog{}
		}
		return writeStructured(cmd, analyticsFormat, logs)
	}

	if len(logs) == 0 {
		cmd.Println("No queries logged yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tREQUESTER\tSOURCED\tCONFIDENCE\tDOCUMENT\tQUESTION")
	for i := range logs {
		l := logs[i]
		doc := l.CitedDocument
		if doc == "" {
			doc = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%.2f\t%s\t%s\n",
			formatTime(l.CreatedAt), l.Requester, l.HasSource, l.Confidence, doc, truncate(l.Question, 60))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runAnalyticsAccuracy(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}
	if err := validateFormat(analyticsFormat); err != nil {
		return err
	}

	report, err := analyticsService.Accuracy(commandContext(cmd), capabilities())
	if err != nil {
		return fmt.Errorf("failed to compute accuracy: %w", err)
	}

	if analyticsFormat != formatTable {
		return writeStructured(cmd, analyticsFormat, report)
	}

	style := goodStyle
	if report.Accuracy < 50 {
		style = warnStyle
	}
	cmd.Printf("Accuracy: %s\n", render(cmd, style, fmt.Sprintf("%.2f%%", report.Accuracy)))
	cmd.Printf("Sourced answers: %d of %d (window %d)\n", report.WithSource, report.Total, report.Window)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
