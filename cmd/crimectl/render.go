package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen)
	failedColor  = color.New(color.FgRed, color.Bold)
)

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// renderCounts prints a two-column label/count table, right-aligned.
func renderCounts(w io.Writer, label string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{label, "Incidents"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func printSummary(w io.Writer, state dashboard.State, locations int) error {
	q := state.Query
	headingColor.Fprintf(w, "%s (area %s)\n", q.Community, state.AreaID) //nolint:errcheck // terminal output
	fmt.Fprintf(w, "%s to %s, %s\n", q.Start.Format(domain.DateLayout), q.End.Format(domain.DateLayout), joinCategories(q.Categories))
	fmt.Fprintf(w, "Incidents: %d  Rejected: %d  Unmapped: %d\n\n",
		state.Views.TotalCount, state.Rejected, state.Views.Map.Excluded)

	headingColor.Fprintln(w, "Time of day") //nolint:errcheck // terminal output
	rows := make([][]string, 0, len(state.Views.TimeOfDay))
	for _, b := range state.Views.TimeOfDay {
		rows = append(rows, []string{b.Bucket, strconv.Itoa(b.Count)})
	}
	if err := renderCounts(w, "Bucket", rows); err != nil {
		return err
	}

	headingColor.Fprintln(w, "\nLocation types") //nolint:errcheck // terminal output
	locs := state.Views.LocationTypes
	if locations > 0 && len(locs) > locations {
		locs = locs[:locations]
	}
	rows = make([][]string, 0, len(locs))
	for _, l := range locs {
		rows = append(rows, []string{l.Location, strconv.Itoa(l.Count)})
	}
	if err := renderCounts(w, "Location", rows); err != nil {
		return err
	}

	headingColor.Fprintln(w, "\nTop crimes") //nolint:errcheck // terminal output
	rows = make([][]string, 0, len(state.Views.TopCrimes))
	for _, c := range state.Views.TopCrimes {
		rows = append(rows, []string{string(c.Category), strconv.Itoa(c.Count)})
	}
	return renderCounts(w, "Category", rows)
}

func joinCategories(cats []domain.Category) string {
	labels := make([]string, len(cats))
	for i, c := range cats {
		labels[i] = string(c)
	}
	return strings.Join(labels, ", ")
}

func statusLabel(status string) string {
	if status == domain.RefreshOK {
		return okColor.Sprint(status)
	}
	return failedColor.Sprint(status)
}
