package core

import "strings"

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. When a name repeats,
// the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Lookup returns the position of the named column.
func (h HeaderIndex) Lookup(name string) (int, bool) {
	pos, ok := h[strings.ToLower(strings.TrimSpace(name))]
	return pos, ok
}

// Cell returns the whitespace-trimmed value of the named column, or "" if the column
// is absent from the header or the row is too short.
func (h HeaderIndex) Cell(row []string, name string) (string, bool) {
	pos, ok := h.Lookup(name)
	if !ok || pos >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[pos]), true
}

// Missing returns the names that are not present in the header, in argument order.
func (h HeaderIndex) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := h.Lookup(n); !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
