package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var (
	alertsSeverity string
	alertsLimit    int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and deliver alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		list, err := a.alerts.List(ctx, alertsSeverity, alertsLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

var alertsSendPendingCmd = &cobra.Command{
	Use:   "send-pending",
	Short: "Text unsent High and Critical alerts to the operator number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.alerts.SendPending(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd, alertsSendPendingCmd)
	alertsListCmd.Flags().StringVar(&alertsSeverity, "severity", "", "only this severity (High, Critical, ...)")
	alertsListCmd.Flags().IntVar(&alertsLimit, "limit", 0, "maximum alerts to list")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
