package entity

import "strings"

// Record is a single row of source data, possibly nested.
type Record map[string]any

// PathSep delimits the segments of a field path.
const PathSep = "."

// Resolve returns the value found at a dot-delimited field path.
// A missing segment or a nil intermediate resolves to no value rather than failing.
func Resolve(rec Record, path string) Value {

	if rec == nil {
		return Value{}
	}

	// a flat key wins over a nested path of the same spelling
	if raw, ok := rec[path]; ok {
		return Value{Raw: raw}
	}

	var cur any = map[string]any(rec)
	for _, seg := range strings.Split(path, PathSep) {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case Record:
			cur = node[seg]
		default:
			return Value{}
		}
		if cur == nil {
			return Value{}
		}
	}

	return Value{Raw: cur}
}
