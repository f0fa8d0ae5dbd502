package directory

import (
	"net/url"
	"strconv"
	"strings"

	"reunion/internal/apperr"
)

var (
	ErrNameRequired     = apperr.Validation("name parameter is required")
	ErrInvalidBatchYear = apperr.Validation("batch_start and batch_end must be integers")
)

// Query describes one directory search.
type Query struct {
	Name       string
	EduType    string
	Education  string
	Department string
	BatchStart *int
	BatchEnd   *int
	Fuzzy      bool
}

// Structured reports whether the education filter applies.
func (q Query) Structured() bool {
	return q.EduType != "" && q.Education != ""
}

// Validate checks the parts of a query that do not depend on the directory contents.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// ParseQuery reads a query from request parameters:
// name, edu_type, education, department, batch_start, batch_end and fuzzy.
// Empty batch bounds are treated as absent. On error the returned query still
// holds every field read so far, so callers can label the failure.
func ParseQuery(params url.Values) (Query, error) {
	q := Query{
		Name:       params.Get("name"),
		EduType:    params.Get("edu_type"),
		Education:  params.Get("education"),
		Department: params.Get("department"),
		Fuzzy:      strings.EqualFold(params.Get("fuzzy"), "true"),
	}
	if err := q.Validate(); err != nil {
		return q, err
	}

	var err error
	if q.BatchStart, err = parseYear(params.Get("batch_start")); err != nil {
		return q, err
	}
	if q.BatchEnd, err = parseYear(params.Get("batch_end")); err != nil {
		return q, err
	}
	return q, nil
}

func parseYear(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil, ErrInvalidBatchYear
	}
	return &year, nil
}
