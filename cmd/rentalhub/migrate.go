package main

import (
	"fmt"
	"strconv"

	"rentalhub/internal/config"
	"rentalhub/internal/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(*cobra.Command, []string) error {
				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
				return migrateUp(cfg, logger)
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back the given number of migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("invalid steps %q", args[0])
					}
					steps = n
				}
				return withMigrator(cfg, func(m *migrations.Migrator) error {
					return m.Down(steps)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cfg, func(m *migrations.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations (clears dirty state)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return withMigrator(cfg, func(m *migrations.Migrator) error {
					return m.Force(v)
				})
			},
		},
	)
	return cmd
}

func migrateUp(cfg *config.Config, logger *zap.Logger) error {
	m, err := migrations.New(cfg.Database.URL(), logger)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _ = m.Close() }()
	if err := m.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	v, _, err := m.Version()
	if err == nil {
		logger.Info("Database schema up to date", zap.Uint("version", v))
	}
	return nil
}

func withMigrator(cfg *config.Config, fn func(m *migrations.Migrator) error) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	m, err := migrations.New(cfg.Database.URL(), logger)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}
