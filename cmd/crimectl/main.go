// Command crimectl runs dashboard refreshes from the terminal: list the
// reference tables, print a community summary, export the cleaned dataset,
// and inspect the refresh history.
//
// Usage:
//
//	crimectl summary --community Loop --category theft --category robbery \
//	  --start 2023-10-01 --end 2024-01-01
//	crimectl export --community Loop --format parquet --out loop.parquet
package main

import (
	"context"
	"os"

	"github.com/fatih/color"
)

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Error:", err) //nolint:errcheck // best effort
		os.Exit(1)
	}
}
