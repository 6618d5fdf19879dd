package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/crime-dashboard/internal/adapter/csvexport"
	"github.com/couchcryptid/crime-dashboard/internal/adapter/parquet"
	"github.com/couchcryptid/crime-dashboard/internal/adapter/sqlite"
	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/spf13/cobra"
)

func newCommunitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "communities",
		Short: "List community area names and their area ids.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			rows := make([][]string, 0, a.communities.Len())
			for _, c := range a.communities.Records() {
				rows = append(rows, []string{c.AreaID, c.Name})
			}
			return renderTable(a.out, []string{"Area", "Community"}, rows)
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the selectable crime categories with their definitions.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			defs := domain.Definitions()
			rows := make([][]string, 0, len(defs))
			for _, d := range defs {
				rows = append(rows, []string{string(d.Name), d.Definition})
			}
			return renderTable(a.out, []string{"Category", "Definition"}, rows)
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	var flags queryFlags
	var locations int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Fetch incidents for a community and print the dashboard views.",
		Long: `Fetch incidents for one community area and print the dashboard views:
incident count, time-of-day distribution, location types and top crimes.

Examples:
  # Thefts and robberies in the Loop during Q4 2023
  crimectl summary --community Loop -c theft -c robbery --start 2023-10-01 --end 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.refresh(cmd, &flags)
			if err != nil {
				return err
			}
			return printSummary(a.out, state, locations)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&locations, "locations", 10, "Number of location types to print (0 prints all)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var flags queryFlags
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch incidents for a community and write the cleaned dataset to a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			write, err := exporter(format)
			if err != nil {
				return err
			}
			state, err := a.refresh(cmd, &flags)
			if err != nil {
				return err
			}
			if err := write(out, state.Dataset); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d incidents to %s\n", state.Dataset.TotalCount, out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or parquet")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func exporter(format string) (func(string, domain.Dataset) error, error) {
	switch strings.ToLower(format) {
	case "csv":
		return csvexport.WriteFile, nil
	case "parquet":
		return parquet.WriteFile, nil
	default:
		return nil, fmt.Errorf("unsupported format %q: want csv or parquet", format)
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recent refreshes recorded in HISTORY_DB_PATH.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.HistoryDBPath == "" {
				return fmt.Errorf("HISTORY_DB_PATH is not set")
			}
			store, err := sqlite.Open(cmd.Context(), a.cfg.HistoryDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.RefreshedAt.Format("2006-01-02 15:04:05"),
					r.Community,
					joinCategories(r.Categories),
					r.Start.Format(domain.DateLayout) + " - " + r.End.Format(domain.DateLayout),
					strconv.Itoa(r.TotalCount),
					statusLabel(r.Status),
					r.Error,
				})
			}
			return renderTable(a.out, []string{"Refreshed", "Community", "Categories", "Range", "Incidents", "Status", "Error"}, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of refreshes to print")
	return cmd
}

// refresh runs one dashboard refresh for the query described by flags.
func (a *app) refresh(cmd *cobra.Command, flags *queryFlags) (dashboard.State, error) {
	svc := a.service()
	q, err := flags.query(svc.DefaultQuery())
	if err != nil {
		return dashboard.State{}, err
	}
	return svc.Refresh(cmd.Context(), dashboard.State{}, q)
}
