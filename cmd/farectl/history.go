package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"FareCast/internal/domain/models"

	"github.com/spf13/cobra"
)

func historyCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the last 10 predictions",
	}
	cmd.AddCommand(historyListCmd(g), historyClearCmd(g))
	return cmd
}

func historyListCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded predictions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			items := models.NewHistoryItems(rt.svc.History())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			return renderHistory(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func historyClearCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded prediction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.svc.ClearHistory(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}
}

func renderHistory(out io.Writer, items []models.HistoryItem) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "no predictions yet")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tAIRLINE\tDEPARTS\tCLASS\tPRICE\tON")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.Route, it.Query.Airline, it.Query.DepartureDate, it.Query.Class, it.PriceLabel, it.CreatedOn)
	}
	return w.Flush()
}

