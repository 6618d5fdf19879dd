package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Query is the dashboard configuration record pushed by the presentation
// layer on every refresh.
type Query struct {
	Start      time.Time  `json:"start_date" validate:"required"`
	End        time.Time  `json:"end_date" validate:"required,gtfield=Start"`
	Categories []Category `json:"categories" validate:"min=1,max=5,unique,dive,crime_category"`
	Community  string     `json:"community" validate:"required"`
}

// QueryError lists the fields of a Query that failed validation.
type QueryError struct {
	Fields map[string]string
}

func (e *QueryError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, f := range names {
		parts[i] = f + ": " + e.Fields[f]
	}
	return fmt.Sprintf("%v: %s", ErrInvalidQuery, strings.Join(parts, "; "))
}

func (e *QueryError) Unwrap() error { return ErrInvalidQuery }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func queryValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("crime_category", func(fl validator.FieldLevel) bool {
			return Category(fl.Field().String()).Valid()
		})
	})
	return validate
}

// Validate checks q and returns a *QueryError describing every invalid field.
func (q Query) Validate() error {
	err := queryValidator().Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	qe := &QueryError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if strings.HasPrefix(field, "categories[") {
			field = "categories"
		}
		if _, exists := qe.Fields[field]; !exists {
			qe.Fields[field] = validationMessage(fe)
		}
	}
	return qe
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gtfield":
		return "must be after start_date"
	case "min":
		return "select at least " + fe.Param()
	case "max":
		return "select at most " + fe.Param()
	case "unique":
		return "must not repeat a category"
	case "crime_category":
		return fmt.Sprintf("unknown crime category %q", fe.Value())
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// FetchWindow returns the timestamp bounds to request from the API so that
// every incident in [q.Start, q.End) is included. The API compares with a
// strict "date >", and its timestamps have millisecond precision, so the
// lower bound moves back one millisecond.
func (q Query) FetchWindow() (time.Time, time.Time) {
	return q.Start.Add(-time.Millisecond), q.End
}
