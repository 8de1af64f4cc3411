package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(cli *cliContext) *cobra.Command {
	var sourceDir string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
	}
	migrateCmd.PersistentFlags().StringVar(&sourceDir, "path", "migrations", "directory holding the migration files")

	open := func() (*migrate.Migrate, error) {
		if cli.cfg.DB.DSN == "" {
			return nil, errors.New("db.dsn is not configured")
		}
		m, err := migrate.New("file://"+sourceDir, cli.cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("cannot open migrations: %w", err)
		}
		return m, nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return report(cmd, cli, m, m.Up())
		},
	}

	var steps int
	var all bool
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if all {
				return report(cmd, cli, m, m.Down())
			}
			return report(cmd, cli, m, m.Steps(-steps))
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	downCmd.Flags().BoolVar(&all, "all", false, "roll back every migration")

	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

func report(cmd *cobra.Command, cli *cliContext, m *migrate.Migrate, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(cmd.OutOrStdout(), "No change")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is empty")
	case verr != nil:
		return verr
	default:
		cli.logger.Info("Migration applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", version)
	}
	return nil
}
