// Package gridlite derives an ordered, filtered view of in-memory records from a declarative
// column configuration, and tracks an active cell for keyboard traversal over it.
package gridlite

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	nt "gridlite/entity"
	"gridlite/filter"
	"gridlite/navigation"
	"gridlite/pipeline"
	"gridlite/sorting"
)

// LayoutWaiter is optionally implemented by a viewport that lays out asynchronously.
type LayoutWaiter interface {
	LayoutComplete(ctx context.Context) error
}

// Config holds grid options.
type Config struct {
	AutoGenerate bool         `yaml:"auto_generate"`
	SortMode     sorting.Mode `yaml:"sort_mode"`

	// Hooks replace the builtin filter and/or sort stages.
	Hooks pipeline.Hooks `yaml:"-"`
}

// Grid is the state coordinator: it owns the column registry and composes the sort and filter
// engines, the data pipeline and the navigator behind one surface.
type Grid struct {
	logger       nt.Logger
	autoGenerate bool

	mu       sync.RWMutex
	columns  []nt.Column
	explicit bool
	data     []nt.Record
	filters  *filter.State
	sorter   *sorting.Sorter
	viewport navigation.Viewport

	pipeline *pipeline.Pipeline
	nav      *navigation.Navigator
	events   listeners
}

// New creates a Grid.
func (cfg *Config) New(lgr nt.Logger) *Grid {

	if lgr == nil {
		lgr = nt.NopLogger{}
	}

	g := &Grid{
		logger:       lgr,
		autoGenerate: cfg.AutoGenerate,
		filters:      filter.NewState(),
		data:         []nt.Record{},
	}

	g.sorter = sorting.New(cfg.SortMode, g.columnLocked)
	g.pipeline = pipeline.New(cfg.Hooks, g.settled)
	g.nav = navigation.New(gridBounds{g}, g.activeChanged)

	return g
}

// Attach connects the windowing collaborator.
func (g *Grid) Attach(vp navigation.Viewport) {
	g.mu.Lock()
	g.viewport = vp
	g.mu.Unlock()

	g.nav.Attach(vp)
}

// Close cancels a recompute in flight and resets navigation, as on teardown.
func (g *Grid) Close() {
	g.pipeline.Close()
	g.nav.Disconnect()
}

// SetData replaces the source records. The slice is never modified.
func (g *Grid) SetData(ctx context.Context, records []nt.Record) {

	if records == nil {
		records = []nt.Record{}
	}

	g.mu.Lock()
	g.data = records
	g.autoColumnsLocked()
	g.mu.Unlock()

	g.commit(ctx)
	g.revalidate(ctx)
}

// Data returns the caller's source records.
func (g *Grid) Data() []nt.Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.data
}

// DataView returns the published view; callers must not modify it.
func (g *Grid) DataView() []nt.Record {
	return g.pipeline.View()
}

// TotalItems is the length of the published view.
func (g *Grid) TotalItems() int {
	return g.pipeline.Len()
}

// Settle waits until the view reflects every mutation so far and the viewport has laid it out.
func (g *Grid) Settle(ctx context.Context) (err error) {

	err = g.pipeline.Wait(ctx)
	if err != nil {
		return
	}

	g.mu.RLock()
	vp := g.viewport
	g.mu.RUnlock()

	waiter, ok := vp.(LayoutWaiter)
	if !ok {
		return
	}
	err = waiter.LayoutComplete(ctx)
	err = errors.Wrapf(err, "failed waiting on layout")
	return
}

// Filter

// DefaultExpression returns the expression a new filter on field starts from:
// the first operand of the column's set and the column's case sensitivity.
func (g *Grid) DefaultExpression(field string) (expr nt.FilterExpression, err error) {

	g.mu.RLock()
	defer g.mu.RUnlock()

	col, ok := g.columnLocked(field)
	if !ok {
		err = &ConfigurationError{Field: field}
		return
	}

	op, err := filter.Resolve(col, "")
	if err != nil {
		return
	}

	expr = nt.FilterExpression{
		Key:           field,
		Condition:     op,
		CaseSensitive: nt.Ptr(col.FilterCaseSensitive),
	}
	return
}

// Filter resolves and stores expressions, then recomputes the view once.
// Nothing is stored when any expression fails to resolve.
func (g *Grid) Filter(ctx context.Context, exprs ...nt.FilterExpression) (err error) {

	resolved, err := g.resolveFilters(exprs)
	if err != nil {
		return
	}

	g.mu.Lock()
	for _, expr := range resolved {
		g.filters.Set(expr)
	}
	g.mu.Unlock()

	g.scrollToTop()
	g.commit(ctx)
	return
}

// FilterWithEvent applies a single filter change bracketed by the filtering and filtered events.
func (g *Grid) FilterWithEvent(ctx context.Context, expr nt.FilterExpression, kind ChangeType) (err error) {

	resolved, err := g.resolveFilters([]nt.FilterExpression{expr})
	if err != nil {
		return
	}
	expr = resolved[0]

	evt := FilteringEvent{Key: expr.Key, Expressions: resolved, Type: kind}
	if !g.events.emitFiltering(ctx, evt) {
		g.logger.Info(ctx, "filter vetoed", "field", expr.Key, "type", kind)
		return
	}

	g.mu.Lock()
	if kind == Remove {
		g.filters.Remove(expr)
	} else {
		g.filters.Set(expr)
	}
	g.mu.Unlock()

	return g.finishFilter(ctx, expr.Key)
}

// RemoveExpression removes one expression from its field's group, with events.
func (g *Grid) RemoveExpression(ctx context.Context, expr nt.FilterExpression) error {
	return g.FilterWithEvent(ctx, expr, Remove)
}

// RemoveAllExpressions removes a field's whole group, with events.
func (g *Grid) RemoveAllExpressions(ctx context.Context, key string) error {

	evt := FilteringEvent{Key: key, Expressions: g.FilterGroup(key), Type: Remove}
	if !g.events.emitFiltering(ctx, evt) {
		g.logger.Info(ctx, "filter vetoed", "field", key, "type", Remove)
		return nil
	}

	g.mu.Lock()
	g.filters.Delete(key)
	g.mu.Unlock()

	return g.finishFilter(ctx, key)
}

// ClearFilter removes the groups for the given fields, or every group.
func (g *Grid) ClearFilter(ctx context.Context, keys ...string) {

	g.mu.Lock()
	if len(keys) == 0 {
		g.filters.Clear()
	}
	for _, key := range keys {
		g.filters.Delete(key)
	}
	g.mu.Unlock()

	g.commit(ctx)
}

// FilterExpressions flattens the filter state.
func (g *Grid) FilterExpressions() []nt.FilterExpression {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.filters.Expressions()
}

// FilterGroup returns the expressions filtering a field, or nil.
func (g *Grid) FilterGroup(key string) []nt.FilterExpression {
	g.mu.RLock()
	defer g.mu.RUnlock()

	grp, ok := g.filters.Get(key)
	if !ok {
		return nil
	}
	return grp.All()
}

// Sort

// Sort merges expressions into the sort state, then recomputes the view once.
// A direction of None removes the key.
func (g *Grid) Sort(ctx context.Context, exprs ...nt.SortExpression) {

	g.mu.Lock()
	g.sorter.Sort(exprs...)
	g.mu.Unlock()

	g.commit(ctx)
}

// SortFromHeader advances the sort of a sortable column through ascending, descending and none,
// bracketed by the sorting and sorted events.
func (g *Grid) SortFromHeader(ctx context.Context, field string) (err error) {

	g.mu.RLock()
	col, ok := g.columnLocked(field)
	if !ok {
		g.mu.RUnlock()
		err = &ConfigurationError{Field: field}
		return
	}
	if !col.Sortable {
		g.mu.RUnlock()
		return
	}
	expr := g.sorter.Prepare(col)
	g.mu.RUnlock()

	if !g.events.emitSorting(ctx, expr) {
		g.logger.Info(ctx, "sort vetoed", "field", field, "direction", expr.Direction)
		return
	}

	g.mu.Lock()
	g.sorter.Apply(expr)
	g.mu.Unlock()

	g.commit(ctx)

	err = g.Settle(ctx)
	if err != nil {
		return
	}

	g.events.emitSorted(ctx, expr)
	return
}

// ClearSort removes the given keys, or every key.
func (g *Grid) ClearSort(ctx context.Context, keys ...string) {

	g.mu.Lock()
	g.sorter.Reset(keys...)
	g.mu.Unlock()

	g.commit(ctx)
}

// SortingExpressions returns the sort state in precedence order.
func (g *Grid) SortingExpressions() []nt.SortExpression {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sorter.State.Expressions()
}

// Navigation

// Active returns the active node.
func (g *Grid) Active() nt.ActiveNode {
	return g.nav.Active()
}

// SetActive sets the active node, as when a cell is clicked. Nodes outside the view are clamped or cleared.
func (g *Grid) SetActive(node nt.ActiveNode) {
	g.nav.SetActive(node)
}

// Navigate applies a directional command; unknown commands are ignored and return false.
func (g *Grid) Navigate(cmd navigation.Command) bool {
	return g.nav.Navigate(cmd)
}

// Disconnect resets navigation to idle, as on teardown of the rendering host.
func (g *Grid) Disconnect() {
	g.nav.Disconnect()
}

// unexported

type gridBounds struct {
	g *Grid
}

func (b gridBounds) TotalRows() int {
	return b.g.TotalItems()
}

func (b gridBounds) VisibleColumns() []string {
	return b.g.VisibleColumns()
}

func (g *Grid) resolveFilters(exprs []nt.FilterExpression) (resolved []nt.FilterExpression, err error) {

	g.mu.RLock()
	defer g.mu.RUnlock()

	resolved = make([]nt.FilterExpression, len(exprs))
	for i, expr := range exprs {
		col, ok := g.columnLocked(expr.Key)
		if !ok {
			err = &ConfigurationError{Field: expr.Key}
			return
		}

		if !expr.Condition.Resolved() {
			expr.Condition, err = filter.Resolve(col, expr.Condition.Name)
			if err != nil {
				err = errors.Wrapf(err, "failed to resolve filter on %s", expr.Key)
				return
			}
		}
		if expr.CaseSensitive == nil {
			expr.CaseSensitive = nt.Ptr(col.FilterCaseSensitive)
		}

		resolved[i] = expr
	}
	return
}

func (g *Grid) finishFilter(ctx context.Context, key string) (err error) {

	g.scrollToTop()
	g.commit(ctx)

	err = g.Settle(ctx)
	if err != nil {
		return
	}

	g.events.emitFiltered(ctx, FilteredEvent{Key: key, State: g.FilterGroup(key)})
	return
}

// commit snapshots state and schedules exactly one recompute for it.
func (g *Grid) commit(ctx context.Context) {

	g.events.notify(Change{Kind: StateChanged})
	g.pipeline.Schedule(ctx, g.snapshot)
}

// snapshot is called by the pipeline with scheduling serialized.
func (g *Grid) snapshot() pipeline.Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return pipeline.Snapshot{
		Records: g.data,
		Filter:  g.filters.Clone(),
		Sort:    g.sorter.State.Clone(),
	}
}

func (g *Grid) settled(result pipeline.Result) {

	ctx := context.Background()
	if result.Err != nil {
		g.logger.Error(ctx, "pipeline failed", result.Err, "generation", result.Generation)
	}

	g.revalidate(ctx)
	g.events.notify(Change{Kind: ViewSettled, Err: result.Err})
}

func (g *Grid) revalidate(ctx context.Context) {

	before := g.nav.Active()
	if g.nav.Revalidate() && g.nav.Active().IsIdle() {
		g.logger.Info(ctx, "cleared stale active node", "node", before.String())
	}
}

func (g *Grid) activeChanged(_, next nt.ActiveNode) {
	g.events.notify(Change{Kind: ActiveChanged, Active: next})
}

func (g *Grid) scrollToTop() {

	g.mu.RLock()
	vp := g.viewport
	g.mu.RUnlock()

	if vp != nil {
		vp.ScrollToRow(0)
	}
}
