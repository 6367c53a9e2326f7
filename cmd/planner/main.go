package main

import (
	"fmt"
	"log/slog"
	"os"

	"cultivation-planner/internal/config"
	"cultivation-planner/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg    config.AppConfig
	logger *slog.Logger

	seedValue int64
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Cultivation planning and bed-capacity service",
	Long: `planner schedules cultivation plans by ISO week, checks whether plantings fit
their beds, estimates yields and triages irrigation.

Configuration comes from the environment (optionally a .env file) and the engine
tuning file named by ENGINE_CONFIG.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger = cfg.NewLogger()
		slog.SetDefault(logger)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP API",
	RunE:  serve,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := openDatabase()
		return err
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the database contents with demonstration data",
	RunE:  seed,
}

func init() {
	seedCmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed for generated irrigation events")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase connects and migrates
func openDatabase() (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(db, logger); err != nil {
		return nil, err
	}
	return db, nil
}
