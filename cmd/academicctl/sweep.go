package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/khoahotran/academic-records/adapters/filestore"
)

func newSweepCmd(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete staged uploads older than uploads.retention",
		Long: `sweep removes files the API server staged in uploads.dir and never
cleaned up, for example after a crash. Files it did not stage are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := filestore.NewTempStore(afero.NewOsFs(), cli.cfg.Uploads.Dir, cli.cfg.Uploads.Retention, cli.logger)
			if err != nil {
				return err
			}
			n := store.Sweep()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale file(s) from %s\n", n, store.Dir())
			return nil
		},
	}
}
