// Package query is the filter predicate engine shared by every list view:
// a free-text query matched against a whitelist of text fields, ANDed with
// any number of categorical facets.
package query

import (
	"net/url"
	"strings"
)

// All is the facet value that leaves a facet unconstrained.
const All = "all"

// Facets maps a facet name to its selected value.
type Facets map[string]string

// Criteria is the filter state of one list view.
type Criteria struct {
	Query  string `json:"query,omitempty"`
	Facets Facets `json:"facets,omitempty"`
}

// Field reads one text value from a record. ok=false means the record has
// no such value, which never matches.
type Field[T any] func(T) (value string, ok bool)

type MatchMode int

const (
	// Exact compares the record value and the selection for equality.
	Exact MatchMode = iota
	// Contains does a case-insensitive substring match of the selection.
	Contains
)

type Facet[T any] struct {
	Field Field[T]
	Mode  MatchMode
}

// Schema describes how records of one entity type are searched and faceted.
type Schema[T any] struct {
	Searchable []Field[T]
	Facets     map[string]Facet[T]
}

// Filter returns the records matching c, in their original order.
// The result is a new slice and never nil; records is not modified.
func Filter[T any](records []T, schema Schema[T], c Criteria) []T {
	out := make([]T, 0, len(records))
	if len(records) == 0 {
		return out
	}
	c = c.normalize()
	for _, rec := range records {
		if schema.match(rec, c) {
			out = append(out, rec)
		}
	}
	return out
}

// Match reports whether rec satisfies c.
func (s Schema[T]) Match(rec T, c Criteria) bool {
	return s.match(rec, c.normalize())
}

func (s Schema[T]) match(rec T, c Criteria) bool {
	for name, selected := range c.Facets {
		if selected == All {
			continue
		}
		facet, ok := s.Facets[name]
		if !ok {
			// unknown facets do not constrain
			continue
		}
		if !facet.matches(rec, selected) {
			return false
		}
	}
	if c.Query == "" {
		return true
	}
	for _, field := range s.Searchable {
		if v, ok := read(field, rec); ok && strings.Contains(strings.ToLower(v), c.Query) {
			return true
		}
	}
	return false
}

func (f Facet[T]) matches(rec T, selected string) bool {
	v, ok := read(f.Field, rec)
	if !ok {
		return false
	}
	if f.Mode == Contains {
		return strings.Contains(strings.ToLower(v), strings.ToLower(selected))
	}
	return v == selected
}

// read calls field, treating a nil accessor or a panic inside it as a
// missing value.
func read[T any](field Field[T], rec T) (v string, ok bool) {
	if field == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			v, ok = "", false
		}
	}()
	return field(rec)
}

// normalize lower-cases and trims the query and turns blank facet values
// into All. The caller's map is copied, not modified.
func (c Criteria) normalize() Criteria {
	out := Criteria{Query: strings.ToLower(strings.TrimSpace(c.Query))}
	if len(c.Facets) == 0 {
		return out
	}
	out.Facets = make(Facets, len(c.Facets))
	for k, v := range c.Facets {
		v = strings.TrimSpace(v)
		if v == "" {
			v = All
		}
		out.Facets[k] = v
	}
	return out
}

// Active reports whether c constrains anything at all.
func (c Criteria) Active() bool {
	n := c.normalize()
	if n.Query != "" {
		return true
	}
	for _, v := range n.Facets {
		if v != All {
			return true
		}
	}
	return false
}

// QueryParam is the URL parameter carrying the free-text query.
const QueryParam = "q"

// ParseCriteria builds criteria from URL parameters: q is the text query,
// every other parameter is a facet. Keys listed in reserved are skipped.
func ParseCriteria(values url.Values, reserved ...string) Criteria {
	skip := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		skip[r] = true
	}
	c := Criteria{Query: values.Get(QueryParam), Facets: Facets{}}
	for k, vs := range values {
		if k == QueryParam || skip[k] || len(vs) == 0 {
			continue
		}
		c.Facets[k] = vs[0]
	}
	return c
}

// String is a convenience accessor for plain string fields.
func String[T any](get func(T) string) Field[T] {
	return func(rec T) (string, bool) {
		return get(rec), true
	}
}

// NonEmpty is like String but treats "" as missing.
func NonEmpty[T any](get func(T) string) Field[T] {
	return func(rec T) (string, bool) {
		v := get(rec)
		return v, v != ""
	}
}
