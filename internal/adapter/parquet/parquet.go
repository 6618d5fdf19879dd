// Package parquet exports cleaned crime datasets to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// IncidentRow is one enriched incident in the export schema.
type IncidentRow struct {
	ID                  string    `parquet:"id,snappy"`
	CaseNumber          *string   `parquet:"case_number,optional,snappy"`
	Block               *string   `parquet:"block,optional,snappy"`
	PrimaryType         string    `parquet:"primary_type,snappy,dict"`
	Description         *string   `parquet:"description,optional,snappy"`
	LocationDescription *string   `parquet:"location_description,optional,snappy,dict"`
	Timestamp           time.Time `parquet:"timestamp,snappy"`
	Hour                int32     `parquet:"hour,snappy"`
	Day                 int32     `parquet:"day,snappy"`
	Month               int32     `parquet:"month,snappy"`
	Year                int32     `parquet:"year,snappy"`
	TimeOfDay           string    `parquet:"time_of_day,snappy,dict"`
	CommunityArea       *string   `parquet:"community_area,optional,snappy"`
	CommunityName       *string   `parquet:"community_name,optional,snappy,dict"`
	FBICode             *string   `parquet:"fbi_code,optional,snappy"`

	// Latitude and Longitude are null when the incident has no usable location.
	Latitude  *float64 `parquet:"latitude,optional,snappy"`
	Longitude *float64 `parquet:"longitude,optional,snappy"`
}

// Rows converts ds to export rows, preserving dataset order.
func Rows(ds domain.Dataset) []IncidentRow {
	rows := make([]IncidentRow, len(ds.Incidents))
	for i, inc := range ds.Incidents {
		row := IncidentRow{
			CaseNumber:          inc.CaseNumber,
			Block:               inc.Block,
			Description:         inc.Description,
			LocationDescription: inc.LocationDescription,
			Timestamp:           inc.Timestamp,
			Hour:                int32(inc.Hour),
			Day:                 int32(inc.Day),
			Month:               int32(inc.Month),
			Year:                int32(inc.Year),
			TimeOfDay:           inc.TimeOfDay,
			CommunityArea:       inc.CommunityArea,
			FBICode:             inc.FBICode,
		}
		if inc.ID != nil {
			row.ID = *inc.ID
		}
		if inc.PrimaryType != nil {
			row.PrimaryType = *inc.PrimaryType
		}
		if inc.Community != nil {
			name := inc.Community.Name
			row.CommunityName = &name
		}
		if lat, lon, ok := inc.Coordinates(); ok {
			row.Latitude, row.Longitude = &lat, &lon
		}
		rows[i] = row
	}
	return rows
}

// Write encodes ds as a Parquet file to w.
func Write(w io.Writer, ds domain.Dataset) error {
	writer := parquet.NewGenericWriter[IncidentRow](w)
	if _, err := writer.Write(Rows(ds)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteFile writes ds to a Parquet file at path, replacing any existing file.
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

// ReadFile reads back rows written by WriteFile.
func ReadFile(path string) ([]IncidentRow, error) {
	rows, err := parquet.ReadFile[IncidentRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet file %q: %w", path, err)
	}
	return rows, nil
}
