package cli

import (
	"github.com/spf13/cobra"

	"hdb-resale/storage"
)

func newExportCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered transactions to a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, ds, err := a.run(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				out = a.cfg.ExportPath
			}

			var w storage.ResultWriter
			w, err = storage.NewCSVFileWriter(out, storage.ExportColumns(ds))
			if err != nil {
				return err
			}
			if err := w.WriteResult(result); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			a.logger.Info("Wrote %d transactions to %s", len(result.Subset), out)
			return nil
		},
	}
	addCriteriaFlags(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output path (default $EXPORT_PATH)")
	return cmd
}
