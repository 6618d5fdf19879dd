package domain

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	communityNameColumn = "Community"
	communityAreaColumn = "Community Area"
)

//go:embed communities.csv
var defaultCommunitiesCSV []byte

// CommunityRecord maps a Chicago community name to its numeric area code.
type CommunityRecord struct {
	Name   string `json:"name"`
	AreaID string `json:"area_id"`
}

// CommunityTable is the read-only community reference table.
type CommunityTable struct {
	records []CommunityRecord
	byName  map[string]int
	byArea  map[string]int
}

// LoadCommunities parses a CSV with "Community" and "Community Area" columns.
// Column order is taken from the header row. When a name appears more than
// once only the first row is kept.
func LoadCommunities(r io.Reader) (*CommunityTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("load communities: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("load communities: %w", err)
	}

	nameCol, areaCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case communityNameColumn:
			nameCol = i
		case communityAreaColumn:
			areaCol = i
		}
	}
	if nameCol < 0 || areaCol < 0 {
		return nil, fmt.Errorf("load communities: header must contain %q and %q", communityNameColumn, communityAreaColumn)
	}

	t := &CommunityTable{
		byName: make(map[string]int),
		byArea: make(map[string]int),
	}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load communities: %w", err)
		}
		if nameCol >= len(row) || areaCol >= len(row) {
			return nil, fmt.Errorf("load communities: line %d: missing columns", line)
		}

		name := row[nameCol]
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("load communities: line %d: empty community name", line)
		}
		area, err := strconv.Atoi(strings.TrimSpace(row[areaCol]))
		if err != nil {
			return nil, fmt.Errorf("load communities: line %d: invalid area %q", line, row[areaCol])
		}

		if _, dup := t.byName[name]; dup {
			continue
		}
		rec := CommunityRecord{Name: name, AreaID: strconv.Itoa(area)}
		t.byName[name] = len(t.records)
		if _, seen := t.byArea[rec.AreaID]; !seen {
			t.byArea[rec.AreaID] = len(t.records)
		}
		t.records = append(t.records, rec)
	}

	if len(t.records) == 0 {
		return nil, errors.New("load communities: table is empty")
	}
	return t, nil
}

// DefaultCommunities returns the embedded table of Chicago's 77 community areas.
func DefaultCommunities() *CommunityTable {
	t, err := LoadCommunities(bytes.NewReader(defaultCommunitiesCSV))
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the area id of the first row whose name equals name exactly.
// Unknown names yield an error wrapping ErrUnknownCommunity.
func (t *CommunityTable) Resolve(name string) (string, error) {
	i, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommunity, name)
	}
	return t.records[i].AreaID, nil
}

// ByAreaID returns the community with the given area id.
func (t *CommunityTable) ByAreaID(areaID string) (CommunityRecord, bool) {
	i, ok := t.byArea[areaID]
	if !ok {
		return CommunityRecord{}, false
	}
	return t.records[i], true
}

// Records returns a copy of the table rows in file order.
func (t *CommunityTable) Records() []CommunityRecord {
	out := make([]CommunityRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Names returns the community names in file order.
func (t *CommunityTable) Names() []string {
	out := make([]string, len(t.records))
	for i, r := range t.records {
		out[i] = r.Name
	}
	return out
}

func (t *CommunityTable) Len() int { return len(t.records) }
