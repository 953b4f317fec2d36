package cli

import (
	"context"

	"github.com/spf13/cobra"

	"hdb-resale/models"
	"hdb-resale/services"
)

func newReportCommand(a *app) *cobra.Command {
	var color bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Filter the dataset and print the aggregate charts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, _, err := a.run(cmd)
			if err != nil {
				return err
			}
			services.ReportPrinter{Color: color}.Print(cmd.OutOrStdout(), result)
			return nil
		},
	}
	addCriteriaFlags(cmd)
	cmd.Flags().BoolVar(&color, "color", true, "ANSI colors in the report")
	return cmd
}

// run loads the dataset once and applies the command's criteria to it.
func (a *app) run(cmd *cobra.Command) (models.FilteredResult, *models.Dataset, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ld, closer, err := newLoader(ctx, a.cfg, a.logger)
	if err != nil {
		return models.FilteredResult{}, nil, err
	}
	defer closer.Close()

	ds, err := ld.Load(ctx)
	if err != nil {
		return models.FilteredResult{}, nil, err
	}

	criteria, err := criteriaFromFlags(cmd, services.Options(ds))
	if err != nil {
		return models.FilteredResult{}, nil, err
	}
	if criteria.MaxPrice == 0 {
		a.logger.Warn("max price is 0: only transactions priced at 0 or less can match, raise it with --max-price")
	}

	result := services.NewPipeline(a.logger).Apply(ds, criteria)
	a.logger.Info("%d of %d transactions match", len(result.Subset), ds.Len())
	return result, ds, nil
}
