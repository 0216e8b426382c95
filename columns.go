package gridlite

import (
	"context"
	"maps"
	"slices"

	nt "gridlite/entity"
)

// SetColumnConfiguration replaces the column registry.
// Sort and filter state for fields no longer configured is purged.
func (g *Grid) SetColumnConfiguration(ctx context.Context, columns []nt.Column) {

	g.mu.Lock()
	next := make([]nt.Column, len(columns))
	for i, col := range columns {
		next[i] = col.Normalize()
	}

	purged := g.purgeLocked(next)
	g.columns = next
	g.explicit = len(next) > 0
	g.mu.Unlock()

	if len(purged) > 0 {
		g.logger.Info(ctx, "purged state of removed columns", "fields", purged)
	}

	g.commit(ctx)
	g.revalidate(ctx)
}

// UpdateColumns merges partial updates onto existing columns by field.
// Updates for fields not in the registry are ignored.
func (g *Grid) UpdateColumns(ctx context.Context, updates ...nt.ColumnUpdate) {

	g.mu.Lock()
	next := slices.Clone(g.columns)
	for _, upd := range updates {
		idx := slices.IndexFunc(next, func(col nt.Column) bool { return col.Field == upd.Field })
		if idx == -1 {
			continue
		}
		next[idx] = next[idx].Merge(upd)
	}
	g.columns = next
	g.mu.Unlock()

	g.commit(ctx)
	g.revalidate(ctx)
}

// SetAutoColumnConfiguration derives columns from the first record when auto generation is
// enabled, no columns were declared and there is data. Otherwise it does nothing.
func (g *Grid) SetAutoColumnConfiguration(ctx context.Context) {

	g.mu.Lock()
	ok := g.autoColumnsLocked()
	g.mu.Unlock()

	if !ok {
		return
	}

	g.commit(ctx)
	g.revalidate(ctx)
}

// Columns returns a copy of the registry in display order.
func (g *Grid) Columns() []nt.Column {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.columns)
}

// GetColumn finds a column by field.
func (g *Grid) GetColumn(field string) (nt.Column, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.columnLocked(field)
}

// ColumnAt finds a column by its position in the registry, hidden columns included.
func (g *Grid) ColumnAt(index int) (nt.Column, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if index < 0 || index >= len(g.columns) {
		return nt.Column{}, false
	}
	return g.columns[index], true
}

// VisibleColumns lists the fields of non-hidden columns in display order.
func (g *Grid) VisibleColumns() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var fields []string
	for _, col := range g.columns {
		if !col.Hidden {
			fields = append(fields, col.Field)
		}
	}
	return fields
}

// InferColumns derives column declarations from the shape of a record.
// Nested objects are flattened into dot-delimited paths; fields are ordered by path.
func InferColumns(rec nt.Record) []nt.Column {

	var columns []nt.Column
	inferInto(&columns, "", rec)
	return columns
}

// unexported

// columnLocked is called with mu held.
func (g *Grid) columnLocked(field string) (nt.Column, bool) {
	for _, col := range g.columns {
		if col.Field == field {
			return col, true
		}
	}
	return nt.Column{}, false
}

func (g *Grid) autoColumnsLocked() bool {

	if !g.autoGenerate || g.explicit || len(g.data) == 0 {
		return false
	}

	g.columns = InferColumns(g.data[0])
	return true
}

func (g *Grid) purgeLocked(next []nt.Column) (purged []string) {

	keep := map[string]bool{}
	for _, col := range next {
		keep[col.Field] = true
	}

	for _, col := range g.columns {
		if keep[col.Field] {
			continue
		}
		_, filtered := g.filters.Get(col.Field)
		sorted := g.sorter.State.Has(col.Field)
		if !filtered && !sorted {
			continue
		}
		g.filters.Delete(col.Field)
		g.sorter.State.Delete(col.Field)
		purged = append(purged, col.Field)
	}
	return
}

func inferInto(columns *[]nt.Column, prefix string, obj map[string]any) {

	for _, key := range slices.Sorted(maps.Keys(obj)) {
		field := key
		if prefix != "" {
			field = prefix + nt.PathSep + key
		}

		value := obj[key]
		switch nested := value.(type) {
		case map[string]any:
			inferInto(columns, field, nested)
			continue
		case nt.Record:
			inferInto(columns, field, nested)
			continue
		}

		*columns = append(*columns, nt.Column{Field: field, DataType: inferType(nt.Value{Raw: value})})
	}
}

func inferType(val nt.Value) nt.DataType {

	switch {
	case val.Raw == nil:
		return nt.String
	case isBool(val):
		return nt.Boolean
	case val.IsNumber():
		return nt.Number
	}
	return nt.String
}

func isBool(val nt.Value) bool {
	_, ok := val.Raw.(bool)
	return ok
}
