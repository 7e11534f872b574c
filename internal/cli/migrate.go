package cli

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"waterhealth-cloud/internal/config"
	"waterhealth-cloud/internal/logging"
	"waterhealth-cloud/internal/seed"
	"waterhealth-cloud/internal/store/postgres"
)

var migratePrint bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema",
	Long:  `Creates the tables and indexes when missing. Safe to run repeatedly.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if migratePrint {
			_, err := cmd.OutOrStdout().Write([]byte(postgres.Schema()))
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("migrate: DATABASE_URL is required")
		}
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr())
		logger.Info().Msg("schema migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demonstration areas into an empty store and score them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		wrote, err := seed.LoadIfEmpty(ctx, a.store, a.logger)
		if err != nil || !wrote {
			return err
		}
		result, err := a.workflow.RecalculateAll(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "print the schema instead of applying it")
}
