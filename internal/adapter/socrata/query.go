package socrata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
)

// BuildWhere renders the SoQL filter for req:
//
//	date > 'START' AND date < 'END' AND (primary_type = 'C1' OR ...) AND community_area = 'AREA'
//
// Requests that would produce a meaningless filter (no categories, an
// unknown category, a blank or non-numeric area id, an empty window) are
// rejected with ErrInvalidFilter so they never reach the API.
func BuildWhere(req domain.FetchRequest) (string, error) {
	if len(req.Categories) == 0 {
		return "", invalidFilter("at least one category is required")
	}
	for _, c := range req.Categories {
		if !c.Valid() {
			return "", invalidFilter("unknown category %q", c)
		}
	}
	area := strings.TrimSpace(req.AreaID)
	if area == "" {
		return "", invalidFilter("community area id is required")
	}
	if _, err := strconv.Atoi(area); err != nil {
		return "", invalidFilter("community area id %q is not numeric", req.AreaID)
	}
	if !req.End.After(req.Start) {
		return "", invalidFilter("end %s is not after start %s", req.End.Format(domain.SocrataTimestampLayout), req.Start.Format(domain.SocrataTimestampLayout))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "date > %s AND date < %s AND (",
		literal(req.Start.Format(domain.SocrataTimestampLayout)),
		literal(req.End.Format(domain.SocrataTimestampLayout)))
	for i, c := range req.Categories {
		if i > 0 {
			b.WriteString(" OR ")
		}
		fmt.Fprintf(&b, "primary_type = %s", literal(string(c)))
	}
	fmt.Fprintf(&b, ") AND community_area = %s", literal(area))
	return b.String(), nil
}

// literal quotes s as a SoQL string literal.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func invalidFilter(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", domain.ErrFetch, domain.ErrInvalidFilter, fmt.Sprintf(format, args...))
}
