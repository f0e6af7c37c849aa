// Package query turns a free-text search request into typed filter criteria.
//
// A term matches a record when any of the following holds, in this order of
// precedence: full-text match over title and description, case-insensitive
// substring of the title, case-insensitive substring of the description,
// numeric equality with the price (when the term is a number), or the
// document date falling on the given calendar day (when the term is a date).
// Tags are conjunctive: a record must carry every requested tag.
package query

import (
	"math"
	"strconv"
	"strings"
	"time"

	"docvault/internal/model"
)

// Sort names an ordering for listings.
type Sort string

const (
	SortCreatedDesc Sort = "created_desc"
	SortCreatedAsc  Sort = "created_asc"
	SortDateDesc    Sort = "date_desc"
	SortDateAsc     Sort = "date_asc"
	SortTitleAsc    Sort = "title_asc"
	SortPriceDesc   Sort = "price_desc"
	SortPriceAsc    Sort = "price_asc"
)

// ParseSort maps a caller-supplied sort name to a Sort. Empty or unknown
// names yield SortCreatedDesc and ok=false for unknown ones.
func ParseSort(s string) (Sort, bool) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortCreatedDesc:
		return SortCreatedDesc, true
	case SortCreatedAsc:
		return SortCreatedAsc, true
	case SortDateDesc:
		return SortDateDesc, true
	case SortDateAsc:
		return SortDateAsc, true
	case SortTitleAsc:
		return SortTitleAsc, true
	case SortPriceDesc:
		return SortPriceDesc, true
	case SortPriceAsc:
		return SortPriceAsc, true
	default:
		return SortCreatedDesc, false
	}
}

// Criteria is the typed filter handed to the record store.
type Criteria struct {
	// Term is the trimmed free-text term; empty means no text filter.
	Term string
	// Tags must all be present on a matching record.
	Tags []string
	// Price is set when Term parses as a number.
	Price *float64
	// DateFrom/DateTo bound the day Term names, when it parses as a date.
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     Sort
}

// HasTerm reports whether a text filter applies.
func (c Criteria) HasTerm() bool { return c.Term != "" }

// Build derives Criteria from a raw term and tag list.
func Build(term string, tags []string, sort Sort) Criteria {
	if sort == "" {
		sort = SortCreatedDesc
	}
	c := Criteria{
		Term: strings.TrimSpace(term),
		Tags: model.NormalizeTags(tags),
		Sort: sort,
	}
	if c.Term == "" {
		return c
	}
	if n, ok := ParseNumber(c.Term); ok {
		c.Price = &n
	}
	if d, ok := ParseDate(c.Term); ok {
		from := d
		to := d.Add(24 * time.Hour)
		c.DateFrom, c.DateTo = &from, &to
	}
	return c
}

// ParseNumber parses a decimal number written with either "." or "," as the
// decimal separator. Thousands separators are accepted when both are present
// ("1.234,50" and "1,234.50").
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return 0, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
	"02/01/2006",
	"2.1.2006",
}

// ParseDate parses a calendar date or an RFC 3339 timestamp and returns the
// start of that day in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return startOfDay(t.UTC()), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return startOfDay(t), true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EscapeLike escapes LIKE/ILIKE wildcards so the term matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
