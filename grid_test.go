package gridlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nt "gridlite/entity"
	"gridlite/filter"
	"gridlite/navigation"
	"gridlite/pipeline"
	"gridlite/sorting"
)

func people() []nt.Record {
	return []nt.Record{
		{"id": 1, "name": "Alice", "active": true, "importance": "high", "address": map[string]any{"city": "Sofia", "code": 1000}},
		{"id": 2, "name": "bob", "active": false, "importance": "low", "address": map[string]any{"city": "Plovdiv", "code": 4000}},
		{"id": 3, "name": "Carol", "active": true, "importance": "medium", "address": map[string]any{"city": "Varna", "code": 9000}},
		{"id": 4, "name": "dave", "active": false, "importance": "medium"},
	}
}

func columns() []nt.Column {
	return []nt.Column{
		{Field: "id", DataType: nt.Number, Sortable: true},
		{Field: "name", Sortable: true, Filterable: true},
		{Field: "active", DataType: nt.Boolean, Filterable: true},
		{Field: "address.city", Header: "City", Sortable: true, Filterable: true},
	}
}

func ids(view []nt.Record) (out []int) {
	for _, rec := range view {
		out = append(out, rec["id"].(int))
	}
	return
}

func newGrid(t *testing.T, cfg Config) *Grid {
	t.Helper()

	grid := cfg.New(nil)
	t.Cleanup(grid.Close)

	ctx := context.Background()
	grid.SetColumnConfiguration(ctx, columns())
	grid.SetData(ctx, people())
	return grid
}

type window struct {
	mu       sync.Mutex
	scrolled []int
	waits    int
}

func (win *window) ScrollToRow(index int) {
	win.mu.Lock()
	defer win.mu.Unlock()
	win.scrolled = append(win.scrolled, index)
}

func (win *window) ResolveRow(int) navigation.RowHandle { return nil }

func (win *window) LayoutComplete(context.Context) error {
	win.mu.Lock()
	defer win.mu.Unlock()
	win.waits++
	return nil
}

func TestSetData(t *testing.T) {

	grid := newGrid(t, Config{})
	data := grid.Data()

	assert.Equal(t, 4, grid.TotalItems())
	assert.Equal(t, []int{1, 2, 3, 4}, ids(grid.DataView()))

	grid.Sort(context.Background(), nt.SortExpression{Key: "id", Direction: nt.Descending})
	assert.Equal(t, []int{4, 3, 2, 1}, ids(grid.DataView()))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(data), "source is untouched")

	grid.SetData(context.Background(), nil)
	assert.Equal(t, 0, grid.TotalItems())
	assert.NotNil(t, grid.DataView())
}

func TestFilterAndSort(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	err := grid.Filter(ctx,
		nt.FilterExpression{Key: "active", Condition: nt.Condition("true")},
		nt.FilterExpression{Key: "address.city", SearchTerm: "I"},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(grid.DataView()))

	grid.Sort(ctx, nt.SortExpression{Key: "name", Direction: nt.Descending})
	grid.ClearFilter(ctx, "active")
	assert.Equal(t, []int{2, 1}, ids(grid.DataView()), "dave has no city")

	grid.ClearFilter(ctx)
	grid.ClearSort(ctx)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(grid.DataView()))
	assert.Empty(t, grid.FilterExpressions())
	assert.Empty(t, grid.SortingExpressions())
}

func TestFilterFailsWhole(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	err := grid.Filter(ctx,
		nt.FilterExpression{Key: "name", SearchTerm: "a"},
		nt.FilterExpression{Key: "nope", SearchTerm: "a"},
	)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "nope", cfgErr.Field)

	err = grid.Filter(ctx, nt.FilterExpression{Key: "id", Condition: nt.Condition("startsWith"), SearchTerm: 1})
	var opErr *filter.UnknownOperandError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, nt.Number, opErr.DataType)

	assert.Empty(t, grid.FilterExpressions())
	assert.Equal(t, 4, grid.TotalItems())
}

func TestDefaultExpression(t *testing.T) {

	cols := columns()
	cols[1].FilterCaseSensitive = true
	grid := newGrid(t, Config{})
	grid.SetColumnConfiguration(context.Background(), cols)

	expr, err := grid.DefaultExpression("name")
	require.NoError(t, err)
	assert.Equal(t, "contains", expr.Condition.Name)
	assert.True(t, expr.Sensitive())

	expr, err = grid.DefaultExpression("id")
	require.NoError(t, err)
	assert.Equal(t, "equals", expr.Condition.Name)

	_, err = grid.DefaultExpression("missing")
	assert.ErrorAs(t, err, new(*ConfigurationError))
}

func TestSortFromHeader(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	var before, after []nt.Direction
	grid.OnSorting(func(_ context.Context, expr nt.SortExpression) bool {
		before = append(before, expr.Direction)
		return true
	})
	grid.OnSorted(func(_ context.Context, expr nt.SortExpression) {
		after = append(after, expr.Direction)
	})

	require.NoError(t, grid.SortFromHeader(ctx, "id"))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(grid.DataView()))
	require.NoError(t, grid.SortFromHeader(ctx, "id"))
	assert.Equal(t, []int{4, 3, 2, 1}, ids(grid.DataView()))
	require.NoError(t, grid.SortFromHeader(ctx, "id"))
	assert.Empty(t, grid.SortingExpressions())

	want := []nt.Direction{nt.Ascending, nt.Descending, nt.None}
	assert.Equal(t, want, before)
	assert.Equal(t, want, after)

	// not sortable
	require.NoError(t, grid.SortFromHeader(ctx, "active"))
	assert.Len(t, before, 3)

	assert.ErrorAs(t, grid.SortFromHeader(ctx, "missing"), new(*ConfigurationError))
}

func TestSortFromHeaderVeto(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	sorted := false
	grid.OnSorting(func(context.Context, nt.SortExpression) bool { return true })
	grid.OnSorting(func(context.Context, nt.SortExpression) bool { return false })
	grid.OnSorted(func(context.Context, nt.SortExpression) { sorted = true })

	require.NoError(t, grid.SortFromHeader(ctx, "name"))
	assert.Empty(t, grid.SortingExpressions())
	assert.False(t, sorted)
}

func TestSortModeSingle(t *testing.T) {

	grid := newGrid(t, Config{SortMode: sorting.Single})
	ctx := context.Background()

	require.NoError(t, grid.SortFromHeader(ctx, "name"))
	require.NoError(t, grid.SortFromHeader(ctx, "id"))

	exprs := grid.SortingExpressions()
	require.Len(t, exprs, 1)
	assert.Equal(t, "id", exprs[0].Key)
}

func TestFilterWithEvent(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	var filtering []FilteringEvent
	var filtered []FilteredEvent
	grid.OnFiltering(func(_ context.Context, evt FilteringEvent) bool {
		filtering = append(filtering, evt)
		return true
	})
	grid.OnFiltered(func(_ context.Context, evt FilteredEvent) {
		filtered = append(filtered, evt)
	})

	alice := nt.FilterExpression{Key: "name", Condition: nt.Condition("equals"), SearchTerm: "alice"}
	bob := nt.FilterExpression{Key: "name", Condition: nt.Condition("startsWith"), SearchTerm: "b", Criteria: nt.Or}

	require.NoError(t, grid.FilterWithEvent(ctx, alice, Add))
	require.NoError(t, grid.FilterWithEvent(ctx, bob, Add))
	assert.Equal(t, []int{1, 2}, ids(grid.DataView()))

	require.NoError(t, grid.RemoveExpression(ctx, alice))
	assert.Equal(t, []int{2}, ids(grid.DataView()))

	require.NoError(t, grid.RemoveAllExpressions(ctx, "name"))
	assert.Equal(t, 4, grid.TotalItems())

	require.Len(t, filtering, 4)
	assert.Equal(t, Add, filtering[0].Type)
	assert.Equal(t, Remove, filtering[2].Type)
	assert.Equal(t, Remove, filtering[3].Type)
	assert.Len(t, filtering[3].Expressions, 1)

	require.Len(t, filtered, 4)
	assert.Len(t, filtered[1].State, 2)
	assert.Len(t, filtered[2].State, 1)
	assert.Empty(t, filtered[3].State)
}

func TestFilterWithEventVeto(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	grid.OnFiltering(func(context.Context, FilteringEvent) bool { return false })
	grid.OnFiltered(func(context.Context, FilteredEvent) { t.Error("filtered after veto") })

	err := grid.FilterWithEvent(ctx, nt.FilterExpression{Key: "name", SearchTerm: "a"}, Add)
	require.NoError(t, err)
	assert.Empty(t, grid.FilterExpressions())
	assert.Equal(t, 4, grid.TotalItems())
}

func TestFilterScrollsToTop(t *testing.T) {

	grid := newGrid(t, Config{})
	win := &window{}
	grid.Attach(win)

	require.NoError(t, grid.Filter(context.Background(), nt.FilterExpression{Key: "name", SearchTerm: "a"}))
	require.NoError(t, grid.Settle(context.Background()))

	assert.Equal(t, []int{0}, win.scrolled)
	assert.Equal(t, 1, win.waits)
}

func TestColumnPurge(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	require.NoError(t, grid.Filter(ctx, nt.FilterExpression{Key: "address.city", SearchTerm: "a"}))
	grid.Sort(ctx, nt.SortExpression{Key: "address.city"}, nt.SortExpression{Key: "id"})
	require.Equal(t, 2, grid.TotalItems())

	grid.SetColumnConfiguration(ctx, columns()[:3])

	assert.Empty(t, grid.FilterExpressions())
	require.Len(t, grid.SortingExpressions(), 1)
	assert.Equal(t, "id", grid.SortingExpressions()[0].Key)
	assert.Equal(t, 4, grid.TotalItems())
}

func TestUpdateColumns(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	grid.UpdateColumns(ctx,
		nt.ColumnUpdate{Field: "name", Hidden: nt.Ptr(true)},
		nt.ColumnUpdate{Field: "nope", Hidden: nt.Ptr(true)},
	)

	col, ok := grid.GetColumn("name")
	require.True(t, ok)
	assert.True(t, col.Hidden)
	assert.True(t, col.Sortable, "other members kept")

	assert.Equal(t, []string{"id", "active", "address.city"}, grid.VisibleColumns())

	at, ok := grid.ColumnAt(1)
	require.True(t, ok)
	assert.Equal(t, "name", at.Field, "hidden columns keep their index")

	_, ok = grid.ColumnAt(4)
	assert.False(t, ok)
}

func TestRevalidateActive(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	grid.SetActive(nt.Active("name", 3))

	require.NoError(t, grid.Filter(ctx, nt.FilterExpression{Key: "active", Condition: nt.Condition("true")}))
	assert.Equal(t, nt.Active("name", 1), grid.Active(), "row clamped to the view")

	grid.UpdateColumns(ctx, nt.ColumnUpdate{Field: "name", Hidden: nt.Ptr(true)})
	assert.True(t, grid.Active().IsIdle(), "hidden column clears the node")

	grid.SetActive(nt.Active("id", 0))
	require.NoError(t, grid.Filter(ctx, nt.FilterExpression{Key: "name", SearchTerm: "zzz"}))
	assert.True(t, grid.Active().IsIdle(), "empty view clears the node")
}

func TestSetActiveStaysInBounds(t *testing.T) {

	grid := newGrid(t, Config{})
	ctx := context.Background()

	grid.UpdateColumns(ctx, nt.ColumnUpdate{Field: "name", Hidden: nt.Ptr(true)})
	grid.SetActive(nt.Active("name", 1))
	assert.True(t, grid.Active().IsIdle(), "hidden column is never active")

	grid.SetActive(nt.Active("nope", 99))
	assert.True(t, grid.Active().IsIdle(), "unknown column is never active")

	grid.SetActive(nt.Active("id", 99))
	assert.Equal(t, nt.Active("id", 3), grid.Active())

	assert.True(t, grid.Navigate(navigation.ArrowUp))
	assert.Equal(t, nt.Active("id", 2), grid.Active())
	assert.Less(t, grid.Active().Row, grid.TotalItems())
}

func TestNavigate(t *testing.T) {

	grid := newGrid(t, Config{})

	var actives []nt.ActiveNode
	grid.Observe(func(chg Change) {
		if chg.Kind == ActiveChanged {
			actives = append(actives, chg.Active)
		}
	})

	assert.True(t, grid.Navigate(navigation.ArrowDown))
	assert.True(t, grid.Navigate(navigation.End))
	assert.True(t, grid.Navigate(navigation.ArrowRight))
	assert.False(t, grid.Navigate(navigation.Command("Tab")))

	assert.Equal(t, []nt.ActiveNode{nt.Active("id", 1), nt.Active("id", 3), nt.Active("name", 3)}, actives)

	grid.Disconnect()
	assert.True(t, grid.Active().IsIdle())
}

func TestAutoColumns(t *testing.T) {

	ctx := context.Background()

	grid := (&Config{AutoGenerate: true}).New(nil)
	defer grid.Close()
	grid.SetData(ctx, people())

	var fields []string
	var types []nt.DataType
	for _, col := range grid.Columns() {
		fields = append(fields, col.Field)
		types = append(types, col.DataType)
	}
	assert.Equal(t, []string{"active", "address.city", "address.code", "id", "importance", "name"}, fields)
	assert.Equal(t, []nt.DataType{nt.Boolean, nt.String, nt.Number, nt.Number, nt.String, nt.String}, types)

	// declared columns win
	grid.SetColumnConfiguration(ctx, columns())
	grid.SetData(ctx, people())
	assert.Len(t, grid.Columns(), 4)

	off := (&Config{}).New(nil)
	defer off.Close()
	off.SetData(ctx, people())
	off.SetAutoColumnConfiguration(ctx)
	assert.Empty(t, off.Columns())
}

func TestObserveStateAndSettle(t *testing.T) {

	grid := newGrid(t, Config{})

	var kinds []ChangeKind
	grid.Observe(func(chg Change) { kinds = append(kinds, chg.Kind) })

	grid.Sort(context.Background(), nt.SortExpression{Key: "id"})
	assert.Equal(t, []ChangeKind{StateChanged, ViewSettled}, kinds)
}

func TestHooks(t *testing.T) {

	release := make(chan struct{})
	hooks := pipeline.Hooks{Sort: func(ctx context.Context, params pipeline.Params) ([]nt.Record, error) {
		<-release
		params.Sort.Apply(params.Data)
		return params.Data, nil
	}}

	grid := (&Config{Hooks: hooks}).New(nil)
	defer grid.Close()
	ctx := context.Background()

	grid.SetColumnConfiguration(ctx, columns())
	grid.SetData(ctx, people())
	grid.Sort(ctx, nt.SortExpression{Key: "id", Direction: nt.Descending})
	assert.Equal(t, 0, grid.TotalItems(), "nothing published yet")

	close(release)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, grid.Settle(waitCtx))
	assert.Equal(t, []int{4, 3, 2, 1}, ids(grid.DataView()))
}

func TestHookError(t *testing.T) {

	fail := errors.New("backend down")
	hooks := pipeline.Hooks{Filter: func(ctx context.Context, params pipeline.Params) ([]nt.Record, error) {
		if params.Filter.Len() > 0 {
			return nil, fail
		}
		return params.Data, nil
	}}

	grid := (&Config{Hooks: hooks}).New(nil)
	defer grid.Close()
	ctx := context.Background()

	grid.SetColumnConfiguration(ctx, columns())
	grid.SetData(ctx, people())
	require.NoError(t, grid.Settle(ctx))

	var settled []error
	grid.Observe(func(chg Change) {
		if chg.Kind == ViewSettled {
			settled = append(settled, chg.Err)
		}
	})

	require.NoError(t, grid.Filter(ctx, nt.FilterExpression{Key: "name", SearchTerm: "a"}))
	err := grid.Settle(ctx)
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 4, grid.TotalItems(), "previous view kept")
	require.Len(t, settled, 1)
}

func TestInferColumns(t *testing.T) {

	cols := InferColumns(nt.Record{"b": 1.5, "a": map[string]any{"y": nil, "x": "s"}})
	assert.Equal(t, []nt.Column{
		{Field: "a.x", DataType: nt.String},
		{Field: "a.y", DataType: nt.String},
		{Field: "b", DataType: nt.Number},
	}, cols)
}
