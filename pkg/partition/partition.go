// Package partition reshapes a flat match list into the view a caller
// asked for: grouped by tournament, grouped by calendar day, or filtered
// to one exact date. It is pure and does no I/O.
package partition

import (
	"sort"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// UnknownGroup labels matches whose ticker row carried no tournament.
const UnknownGroup = "Unknown Tournament"

// Group is one tournament's matches, in input order.
type Group struct {
	Label   string          `json:"label"`
	Matches []records.Match `json:"matches"`
}

// DayGroups is one calendar day's matches, grouped by tournament.
type DayGroups struct {
	Date   string  `json:"date"`
	Groups []Group `json:"groups"`
}

// ByGroup buckets matches by group label, keeping first-seen group order
// and input order inside each group. Matches the ticker cannot attribute
// land under UnknownGroup.
func ByGroup(matches []records.Match) []Group {
	groups := []Group{}
	index := make(map[string]int)

	for _, m := range matches {
		label := m.GroupLabel
		if label == "" {
			label = UnknownGroup
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Matches = append(groups[i].Matches, m)
	}

	return groups
}

// ByDay buckets matches by the calendar date of their raw date, ascending,
// each day holding the ByGroup view of that day's matches. Matches whose
// raw date does not parse are left out; they still show up in ByGroup.
func ByDay(matches []records.Match) []DayGroups {
	byDate := make(map[string][]records.Match)
	for _, m := range matches {
		t, ok := ParseMatchDate(m.RawDate)
		if !ok {
			continue
		}
		key := DateKey(t)
		byDate[key] = append(byDate[key], m)
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	// ISO date strings sort chronologically.
	sort.Strings(keys)

	out := []DayGroups{}
	for _, k := range keys {
		out = append(out, DayGroups{Date: k, Groups: ByGroup(byDate[k])})
	}
	return out
}

// ByDate returns the ByGroup view of the matches that fall on the given
// date. No matches on that date is a valid outcome and yields an empty
// grouping.
func ByDate(matches []records.Match, date time.Time) []Group {
	want := DateKey(date)

	var day []records.Match
	for _, m := range matches {
		t, ok := ParseMatchDate(m.RawDate)
		if !ok {
			continue
		}
		if DateKey(t) == want {
			day = append(day, m)
		}
	}
	return ByGroup(day)
}

// Ticker timestamps look like "July 8, 2025 - 18:00 CEST". Zone
// abbreviations are not resolved; timestamps are taken as already being
// in the display timezone and only their date component is compared.
var matchDateLayouts = []string{
	"January 2, 2006 - 15:04 MST",
	"January 2, 2006 - 15:04",
	"January 2, 2006",
}

// ParseMatchDate parses a ticker timestamp, reporting whether it parsed.
func ParseMatchDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range matchDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateKey renders the date component as an ISO date string.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
