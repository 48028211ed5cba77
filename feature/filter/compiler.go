package filter

import "strings"

// Predicate is a compiled AND-conjunction of comparison conditions, e.g.
// "viewCount > 1000000 AND subscriberCount < 1000". It is embedded verbatim
// into the WHERE clause of downstream report and reconciliation queries.
type Predicate string

// IsEmpty reports whether the predicate contains no conditions.
// An empty predicate means no filters are configured; callers decide whether
// that is acceptable (the reconciliation engine treats it as fatal).
func (p Predicate) IsEmpty() bool {
	return p == ""
}

func (p Predicate) String() string {
	return string(p)
}

// Row is a single filter condition from the configuration source.
type Row struct {
	Field    string
	Operator string
	Value    string
}

// Operators accepted in a filter row.
var operators = map[string]struct{}{
	">": {}, "<": {}, ">=": {}, "<=": {}, "=": {}, "!=": {},
}

// ParseRow validates a raw configuration row. It returns false if the row
// does not have exactly three populated cells or uses an unknown operator.
func ParseRow(cells []string) (Row, bool) {
	if len(cells) != 3 {
		return Row{}, false
	}
	row := Row{
		Field:    strings.TrimSpace(cells[0]),
		Operator: strings.TrimSpace(cells[1]),
		Value:    strings.TrimSpace(cells[2]),
	}
	if row.Field == "" || row.Value == "" {
		return Row{}, false
	}
	if _, ok := operators[row.Operator]; !ok {
		return Row{}, false
	}
	return row, true
}

// Compile turns ordered configuration rows into a single predicate.
// Conditions are AND-joined in input order so the output is deterministic.
// Malformed rows are dropped silently; one bad row must not block the rest.
// Zero valid rows yield the empty predicate, not an error.
//
// Values are interpolated verbatim. The configuration sheet is a curated,
// internal input, and the downstream query engine receives the predicate as
// a literal WHERE fragment.
func Compile(rows [][]string) Predicate {
	conditions := make([]string, 0, len(rows))
	for _, cells := range rows {
		row, ok := ParseRow(cells)
		if !ok {
			continue
		}
		conditions = append(conditions, row.Field+" "+row.Operator+" "+row.Value)
	}
	return Predicate(strings.Join(conditions, " AND "))
}
