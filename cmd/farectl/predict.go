package main

import (
	"errors"
	"fmt"

	"FareCast/internal/domain/models"
	"FareCast/internal/usecase"
	"FareCast/pkg/util"

	"github.com/spf13/cobra"
)

func predictCmd(g *globalFlags) *cobra.Command {
	q := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the fare for one day and record it in the history",
		Example: `  farectl predict --airline Vistara --from Delhi --to Mumbai --date 2025-06-01
  farectl predict --airline Indigo --from Delhi --to Mumbai --date 2025-06-01 --swap`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d := q.descriptor()
			req := models.PredictRequest(d)
			if err := validate(ctx, &req); err != nil {
				return err
			}

			rt, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			entry, err := rt.svc.PredictOnce(ctx, req.Descriptor())
			if err != nil {
				var perr *usecase.PredictionError
				if errors.As(err, &perr) {
					return errors.New(perr.Message)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n",
				entry.Query.Route(),
				util.FormatDate(entry.Result.Date),
				entry.Query.Airline,
				models.FormatINR(entry.Result.Price),
			)
			return nil
		},
	}
	q.bind(cmd)
	return cmd
}
