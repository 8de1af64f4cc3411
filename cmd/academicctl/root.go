package main

import (
	"github.com/spf13/cobra"

	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// cliContext carries what every subcommand needs once flags are parsed.
type cliContext struct {
	configDir string
	cfg       config.Config
	logger    logger.Logger
}

// NewRootCommand builds academicctl, the operator tool for the academic
// records service.
func NewRootCommand() *cobra.Command {
	cli := &cliContext{}

	rootCmd := &cobra.Command{
		Use:   "academicctl",
		Short: "Operate the academic records service",
		Long: `academicctl runs maintenance tasks against the same configuration the
API server and worker read: schema migrations, temp upload sweeps and
development tokens.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cli.configDir)
			if err != nil {
				return err
			}
			cli.cfg = cfg
			cli.logger = logger.NewZapLogger(cfg.App.Env)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cli.configDir, "config-dir", ".", "directory holding config.yaml and .env")

	rootCmd.AddCommand(newMigrateCmd(cli))
	rootCmd.AddCommand(newSweepCmd(cli))
	rootCmd.AddCommand(newTokenCmd(cli))

	return rootCmd
}
