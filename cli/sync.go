package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hdb-resale/config"
)

func newSyncCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Load the dataset from file or remote and store it in PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataSource == config.SourcePostgres {
				return fmt.Errorf("sync needs a file or remote source, got %q", a.cfg.DataSource)
			}
			ctx := cmd.Context()

			ld, closer, err := newLoader(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			ds, err := ld.Load(ctx)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Write(ctx, ds)
		},
	}
}
