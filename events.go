package gridlite

import (
	"context"
	"slices"
	"sync"

	nt "gridlite/entity"
)

// ChangeType classifies a filtering operation.
type ChangeType string

const (
	Add    ChangeType = "add"
	Modify ChangeType = "modify"
	Remove ChangeType = "remove"
)

// FilteringEvent is raised before a filter mutation; a listener returning false vetoes it.
type FilteringEvent struct {
	Key         string
	Expressions []nt.FilterExpression
	Type        ChangeType
}

// FilteredEvent is raised once the view reflects a filter mutation.
type FilteredEvent struct {
	Key   string
	State []nt.FilterExpression
}

// ChangeKind classifies an observer notification.
type ChangeKind int

const (
	// StateChanged follows any mutation of columns, data, sort or filter state.
	StateChanged ChangeKind = iota
	// ViewSettled follows publication of a recomputed view.
	ViewSettled
	// ActiveChanged follows a change of the active node.
	ActiveChanged
)

// Change is delivered to observers.
type Change struct {
	Kind   ChangeKind
	Active nt.ActiveNode
	Err    error
}

// Observer is called synchronously for each change.
type Observer func(Change)

type listeners struct {
	mu        sync.Mutex
	observers []Observer
	sorting   []func(context.Context, nt.SortExpression) bool
	sorted    []func(context.Context, nt.SortExpression)
	filtering []func(context.Context, FilteringEvent) bool
	filtered  []func(context.Context, FilteredEvent)
}

// Observe registers an observer.
func (g *Grid) Observe(fn Observer) {
	g.events.mu.Lock()
	defer g.events.mu.Unlock()
	g.events.observers = append(g.events.observers, fn)
}

// OnSorting registers a cancelable listener called before a header sort is applied.
func (g *Grid) OnSorting(fn func(ctx context.Context, expr nt.SortExpression) bool) {
	g.events.mu.Lock()
	defer g.events.mu.Unlock()
	g.events.sorting = append(g.events.sorting, fn)
}

// OnSorted registers a listener called after a header sort has settled.
func (g *Grid) OnSorted(fn func(ctx context.Context, expr nt.SortExpression)) {
	g.events.mu.Lock()
	defer g.events.mu.Unlock()
	g.events.sorted = append(g.events.sorted, fn)
}

// OnFiltering registers a cancelable listener called before a filter mutation is applied.
func (g *Grid) OnFiltering(fn func(ctx context.Context, evt FilteringEvent) bool) {
	g.events.mu.Lock()
	defer g.events.mu.Unlock()
	g.events.filtering = append(g.events.filtering, fn)
}

// OnFiltered registers a listener called after a filter mutation has settled.
func (g *Grid) OnFiltered(fn func(ctx context.Context, evt FilteredEvent)) {
	g.events.mu.Lock()
	defer g.events.mu.Unlock()
	g.events.filtered = append(g.events.filtered, fn)
}

// unexported

func (ls *listeners) notify(chg Change) {
	ls.mu.Lock()
	observers := slices.Clone(ls.observers)
	ls.mu.Unlock()

	for _, fn := range observers {
		fn(chg)
	}
}

// emitSorting calls every listener; any false vetoes.
func (ls *listeners) emitSorting(ctx context.Context, expr nt.SortExpression) bool {
	ls.mu.Lock()
	fns := slices.Clone(ls.sorting)
	ls.mu.Unlock()

	proceed := true
	for _, fn := range fns {
		if !fn(ctx, expr) {
			proceed = false
		}
	}
	return proceed
}

func (ls *listeners) emitSorted(ctx context.Context, expr nt.SortExpression) {
	ls.mu.Lock()
	fns := slices.Clone(ls.sorted)
	ls.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, expr)
	}
}

func (ls *listeners) emitFiltering(ctx context.Context, evt FilteringEvent) bool {
	ls.mu.Lock()
	fns := slices.Clone(ls.filtering)
	ls.mu.Unlock()

	proceed := true
	for _, fn := range fns {
		if !fn(ctx, evt) {
			proceed = false
		}
	}
	return proceed
}

func (ls *listeners) emitFiltered(ctx context.Context, evt FilteredEvent) {
	ls.mu.Lock()
	fns := slices.Clone(ls.filtered)
	ls.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, evt)
	}
}
