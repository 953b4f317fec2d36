// Package cli wires configuration, loaders and the pipeline into commands.
package cli

import (
	"github.com/spf13/cobra"

	"hdb-resale/config"
	"hdb-resale/utils"
)

type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewRootCommand builds the command tree. Flags override the environment.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "hdb-resale",
		Short:         "Explore HDB resale transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.cfg = config.Load()
			flags := cmd.Flags()
			if flags.Changed("source") {
				a.cfg.DataSource, _ = flags.GetString("source")
			}
			if flags.Changed("file") {
				a.cfg.DataFile, _ = flags.GetString("file")
			}
			if flags.Changed("log-level") {
				a.cfg.LogLevel, _ = flags.GetString("log-level")
			}
			a.logger = utils.NewLogger()
			a.logger.SetLevel(utils.ParseLevel(a.cfg.LogLevel))
		},
	}

	root.PersistentFlags().String("source", config.SourceFile, "data source: file, remote or postgres")
	root.PersistentFlags().String("file", "", "path of the resale CSV (file source)")
	root.PersistentFlags().String("log-level", "info", "debug, info, warn or error")

	root.AddCommand(
		newReportCommand(a),
		newExportCommand(a),
		newServeCommand(a),
		newSyncCommand(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
