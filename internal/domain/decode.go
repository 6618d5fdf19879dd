package domain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// DecodeIncidents parses a Socrata JSON array into RawIncidents.
//
// Each element is checked against the incident schema: a column may be a
// JSON string, a JSON number (kept as its literal text), null, or absent.
// Elements that are not objects, or that carry an object, array or boolean
// in a known column, become Rejections and the remaining records are kept.
// Unknown columns are ignored. An error is returned only when data is not a
// JSON array at all.
func DecodeIncidents(data []byte) ([]RawIncident, []Rejection, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, fmt.Errorf("decode incidents: %w", err)
	}

	incidents := make([]RawIncident, 0, len(elems))
	var rejected []Rejection
	for i, elem := range elems {
		raw, rej := decodeIncident(elem)
		if rej != nil {
			rej.Index = i
			rejected = append(rejected, *rej)
			continue
		}
		raw.Index = i
		incidents = append(incidents, raw)
	}
	return incidents, rejected, nil
}

func decodeIncident(elem json.RawMessage) (RawIncident, *Rejection) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
		return RawIncident{}, &Rejection{Field: "record", Err: fmt.Errorf("%w: record is not a JSON object", ErrParse)}
	}

	var raw RawIncident
	for _, f := range raw.fieldRefs() {
		v, ok := obj[f.name]
		if !ok {
			continue
		}
		s, err := textValue(v)
		if err != nil {
			id, _ := textValue(obj["id"])
			return RawIncident{}, &Rejection{
				ID:    deref(id),
				Field: f.name,
				Err:   fmt.Errorf("%w: %w", ErrParse, err),
			}
		}
		*f.dst = s
	}
	return raw, nil
}

var errUnexpectedValue = errors.New("unexpected JSON value")

// textValue converts a scalar JSON value into its text form.
func textValue(v json.RawMessage) (*string, error) {
	t := bytes.TrimSpace(v)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil, nil
	}
	switch c := t[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case c == '-' || (c >= '0' && c <= '9'):
		s := string(t)
		return &s, nil
	default:
		return nil, fmt.Errorf("%w %.32s", errUnexpectedValue, t)
	}
}
