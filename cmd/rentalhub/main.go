package main

import (
	"fmt"
	"os"

	"rentalhub/common/logger"
	"rentalhub/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	// config.Load also reads an optional .env file
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:           "rentalhub",
		Short:         "RentalHub property rental marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCmd(cfg),
		migrateCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "rentalhub")
}
