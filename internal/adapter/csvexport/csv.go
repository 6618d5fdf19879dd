// Package csvexport writes cleaned crime datasets as CSV.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
)

// Header is the column order of every export: the API columns followed by
// the derived fields.
var Header = append(append([]string(nil), domain.IncidentColumns...),
	"timestamp", "hour", "day", "month", "time_of_day", "community_name",
)

// Write encodes ds as CSV with a header row. The "year" column carries the
// year derived from the timestamp.
func Write(w io.Writer, ds domain.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, inc := range ds.Incidents {
		if err := cw.Write(record(inc)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile writes ds to a CSV file at path, replacing any existing file.
func WriteFile(path string, ds domain.Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := Write(file, ds); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func record(inc domain.EnrichedIncident) []string {
	values := inc.Values()
	for i, col := range domain.IncidentColumns {
		if col == "year" {
			values[i] = strconv.Itoa(inc.Year)
		}
	}
	community := ""
	if inc.Community != nil {
		community = inc.Community.Name
	}
	return append(values,
		inc.Timestamp.Format(domain.SocrataTimestampLayout),
		strconv.Itoa(inc.Hour),
		strconv.Itoa(inc.Day),
		strconv.Itoa(inc.Month),
		inc.TimeOfDay,
		community,
	)
}
