package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"FareCast/internal/domain/models"

	"github.com/spf13/cobra"
)

func forecastCmd(g *globalFlags) *cobra.Command {
	q := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Price the 7 days starting at --date",
		Long: `Price the departure date and the six days after it. Days the prediction
service cannot price are filled with placeholder fares marked "estimated".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			req := models.ForecastRequest(q.descriptor())
			if err := validate(ctx, &req); err != nil {
				return err
			}

			rt, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			series, err := rt.svc.RunForecast(ctx, req.Descriptor())
			if err != nil {
				return err
			}
			return renderSeries(cmd.OutOrStdout(), models.NewSeriesView(series))
		},
	}
	q.bind(cmd)
	return cmd
}

func renderSeries(out io.Writer, v models.SeriesView) error {
	fmt.Fprintf(out, "%s  %s  %s\n\n", v.Title, v.Route, v.Query.Airline)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tDATE\tPRICE\t")
	for _, p := range v.Points {
		note := ""
		if p.Origin == models.OriginSynthetic {
			note = "estimated"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Day, p.FullDate, p.PriceLabel, note)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if v.Degraded {
		fmt.Fprintln(out, "\nprediction service unavailable, every fare is estimated")
	}
	return nil
}
