package duck

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	nt "gridlite/entity"
	"gridlite/filter"
	"gridlite/sorting"
)

// NotPushableError reports state that has no SQL translation, such as a caller supplied
// predicate or comparer.
type NotPushableError struct {
	Key    string
	Reason string
}

func (err *NotPushableError) Error() string {
	return fmt.Sprintf("cannot push down %s: %s", err.Key, err.Reason)
}

type builder struct {
	top    map[string]bool
	leaves map[string]nt.DataType
}

// where translates the filter state: groups joined with AND, each folded left by criteria.
func (bld builder) where(fs *filter.State) (clause string, args []any, err error) {

	var groups []string
	for _, key := range fs.Keys() {
		grp, ok := fs.Get(key)
		if !ok {
			continue
		}

		var folded string
		for i, expr := range grp.All() {
			var cond string
			var condArgs []any
			cond, condArgs, err = bld.condition(expr)
			if err != nil {
				return
			}
			args = append(args, condArgs...)

			if i == 0 {
				folded = cond
				continue
			}
			folded = fmt.Sprintf("(%s %s %s)", folded, strings.ToUpper(expr.Criteria.String()), cond)
		}
		if folded != "" {
			groups = append(groups, folded)
		}
	}

	if len(groups) == 0 {
		return
	}
	clause = "WHERE " + strings.Join(groups, " AND ")
	return
}

// orderBy translates the sort state, falling back to load order.
func (bld builder) orderBy(ss *sorting.State) (clause string, err error) {

	var terms []string
	for _, expr := range ss.Expressions() {
		if expr.Comparer != nil {
			err = &NotPushableError{Key: expr.Key, Reason: "custom comparer"}
			return
		}

		var lhs string
		lhs, err = bld.path(expr.Key)
		if err != nil {
			return
		}
		if bld.leaves[expr.Key] == nt.String && !(expr.CaseSensitive != nil && *expr.CaseSensitive) {
			lhs = fmt.Sprintf("lower(%s)", lhs)
		}

		switch expr.Direction {
		case nt.Ascending:
			terms = append(terms, lhs+" ASC NULLS FIRST")
		case nt.Descending:
			terms = append(terms, lhs+" DESC NULLS LAST")
		}
	}

	terms = append(terms, "rowid")
	clause = "ORDER BY " + strings.Join(terms, ", ")
	return
}

func (bld builder) condition(expr nt.FilterExpression) (cond string, args []any, err error) {

	lhs, err := bld.path(expr.Key)
	if err != nil {
		return
	}
	term := nt.Value{Raw: expr.SearchTerm}
	text := fmt.Sprintf("CAST(%s AS VARCHAR)", lhs)
	number := fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", lhs)

	switch expr.Condition.Op {
	case nt.Empty:
		cond = fmt.Sprintf("(%s IS NULL OR %s = '')", lhs, text)
		return
	case nt.NotEmpty:
		cond = fmt.Sprintf("(%s IS NOT NULL AND %s != '')", lhs, text)
		return
	case nt.True:
		cond = fmt.Sprintf("%s = true", lhs)
		return
	case nt.False:
		cond = fmt.Sprintf("%s = false", lhs)
		return
	case nt.Between:
		var lo, hi nt.Value
		lo, hi, err = term.Range()
		if err != nil {
			err = errors.Wrapf(err, "bad range for %s", expr.Key)
			return
		}
		args, err = numbers(expr.Key, lo, hi)
		cond = fmt.Sprintf("%s BETWEEN ? AND ?", number)
		return
	case nt.Custom:
		err = &NotPushableError{Key: expr.Key, Reason: "custom operand"}
		return
	}

	switch bld.leaves[expr.Key] {
	case nt.Number:
		op, ok := comparisons[expr.Condition.Op]
		if !ok {
			err = &NotPushableError{Key: expr.Key, Reason: expr.Condition.Name}
			return
		}
		args, err = numbers(expr.Key, term)
		cond = fmt.Sprintf("%s %s ?", number, op)
		return

	case nt.Boolean:
		if expr.Condition.Op != nt.Equals {
			err = &NotPushableError{Key: expr.Key, Reason: expr.Condition.Name}
			return
		}
		var want bool
		want, err = term.Bool()
		if err != nil {
			err = errors.Wrapf(err, "bad term for %s", expr.Key)
			return
		}
		cond = fmt.Sprintf("%s = ?", lhs)
		args = []any{want}
		return
	}

	needle := term.String()
	if !expr.Sensitive() {
		text = fmt.Sprintf("lower(%s)", text)
		needle = strings.ToLower(needle)
	}

	format, ok := textuals[expr.Condition.Op]
	if !ok {
		err = &NotPushableError{Key: expr.Key, Reason: expr.Condition.Name}
		return
	}
	cond = fmt.Sprintf(format, text)
	args = []any{needle}
	return
}

// path addresses a field, descending into struct columns for dot-delimited paths.
func (bld builder) path(key string) (lhs string, err error) {

	if _, ok := bld.leaves[key]; !ok {
		err = &NotPushableError{Key: key, Reason: "unknown field"}
		return
	}
	if bld.top[key] {
		lhs = ident(key)
		return
	}

	segments := strings.Split(key, nt.PathSep)
	lhs = ident(segments[0])
	for _, seg := range segments[1:] {
		lhs = fmt.Sprintf("struct_extract(%s, %s)", lhs, literal(seg))
	}
	return
}

var comparisons = map[nt.FilterOp]string{
	nt.Equals:             "=",
	nt.DoesNotEqual:       "!=",
	nt.GreaterThan:        ">",
	nt.LessThan:           "<",
	nt.GreaterThanOrEqual: ">=",
	nt.LessThanOrEqual:    "<=",
}

var textuals = map[nt.FilterOp]string{
	nt.Contains:       "contains(%s, ?)",
	nt.DoesNotContain: "NOT contains(%s, ?)",
	nt.StartsWith:     "starts_with(%s, ?)",
	nt.EndsWith:       "suffix(%s, ?)",
	nt.Equals:         "%s = ?",
	nt.DoesNotEqual:   "%s != ?",
}

func numbers(key string, vals ...nt.Value) (args []any, err error) {

	args = make([]any, len(vals))
	for i, val := range vals {
		var num float64
		num, err = val.Number()
		if err != nil {
			err = errors.Wrapf(err, "bad term for %s", key)
			return
		}
		args[i] = num
	}
	return
}

// leafColumns declares a column for a schema field, flattening struct members into paths.
func leafColumns(name, typ string) (columns []nt.Column) {

	members, ok := structMembers(typ)
	if !ok {
		return []nt.Column{{Field: name, DataType: dataType(typ)}}
	}

	for _, member := range members {
		columns = append(columns, leafColumns(name+nt.PathSep+member.Name, member.Type)...)
	}
	return
}

// structMembers parses a type like STRUCT(city VARCHAR, "zip code" BIGINT).
func structMembers(typ string) (members []Field, ok bool) {

	typ = strings.TrimSpace(typ)
	if !strings.HasPrefix(typ, "STRUCT(") || !strings.HasSuffix(typ, ")") {
		return
	}
	inner := typ[len("STRUCT(") : len(typ)-1]

	for _, part := range splitTopLevel(inner) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var member Field
		if strings.HasPrefix(part, `"`) {
			end := closingQuote(part)
			member.Name = strings.ReplaceAll(part[1:end], `""`, `"`)
			member.Type = strings.TrimSpace(part[end+1:])
		} else {
			name, rest, _ := strings.Cut(part, " ")
			member.Name = name
			member.Type = strings.TrimSpace(rest)
		}
		members = append(members, member)
	}

	ok = true
	return
}

func splitTopLevel(str string) (parts []string) {

	depth, start, quoted := 0, 0, false
	for i, ch := range str {
		switch {
		case ch == '"':
			quoted = !quoted
		case quoted:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, str[start:i])
			start = i + 1
		}
	}
	parts = append(parts, str[start:])
	return
}

func closingQuote(str string) int {

	for i := 1; i < len(str); i++ {
		if str[i] != '"' {
			continue
		}
		if i+1 < len(str) && str[i+1] == '"' {
			i++
			continue
		}
		return i
	}
	return len(str) - 1
}

func dataType(typ string) nt.DataType {

	typ = strings.ToUpper(strings.TrimSpace(typ))
	switch {
	case typ == "BOOLEAN":
		return nt.Boolean
	case strings.HasPrefix(typ, "DECIMAL"):
		return nt.Number
	}

	switch typ {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"FLOAT", "REAL", "DOUBLE":
		return nt.Number
	}
	return nt.String
}
