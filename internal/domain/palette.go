package domain

import "github.com/cespare/xxhash/v2"

// safePalette is the 11-colour plotly "Safe" qualitative palette extended
// with two colours from Paul Tol's light scheme, one per taxonomy category.
var safePalette = []string{
	"#88CCEE", "#CC6677", "#DDCC77", "#117733", "#332288", "#AA4499",
	"#44AA99", "#999933", "#882255", "#661100", "#888888",
	"#6699CC", "#EE8866",
}

// CategoryColor assigns label a palette colour from its position in the
// taxonomy, so the colour does not depend on which other categories are shown.
// Labels outside the taxonomy fall back to a hash of the label.
func CategoryColor(label string) string {
	for i, d := range taxonomy {
		if string(d.Name) == label {
			return safePalette[i%len(safePalette)]
		}
	}
	return safePalette[xxhash.Sum64String(label)%uint64(len(safePalette))]
}
