package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	apihttp "waterhealth-cloud/internal/api/http"
	"waterhealth-cloud/internal/joblock"
	"waterhealth-cloud/internal/reports/render"
	riskapp "waterhealth-cloud/internal/risk/application"
)

var recalculateXLSX string

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Rescore every assessed area once",
	Long: `Runs one recalculation under the shared job lock and prints the result as JSON.
Fails with a lock error if a scheduled run is in progress.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		var result *riskapp.RecalculationResult
		err = joblock.With(ctx, a.locker, apihttp.RecalculateJob, a.cfg.Recalculation.LockTTL, func(ctx context.Context) error {
			var err error
			result, err = a.workflow.RecalculateAll(ctx)
			return err
		})
		if err != nil {
			return err
		}

		if recalculateXLSX != "" {
			data, err := render.RecalculationXLSX(result)
			if err != nil {
				return err
			}
			if err := os.WriteFile(recalculateXLSX, data, 0o644); err != nil {
				return err
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(recalculateCmd)
	recalculateCmd.Flags().StringVar(&recalculateXLSX, "xlsx", "", "also write the run as an XLSX workbook to this path")
}
