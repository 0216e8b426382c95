// Package pipeline derives the published view from source records by filtering then sorting,
// optionally through caller supplied hooks that may block.
package pipeline

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"

	nt "gridlite/entity"
	"gridlite/filter"
	"gridlite/sorting"
)

// Stage names a step of the pipeline.
type Stage string

const (
	FilterStage Stage = "filter"
	SortStage   Stage = "sort"
)

// Params is handed to a hook.
type Params struct {
	Data   []nt.Record
	Type   Stage
	Filter *filter.State
	Sort   *sorting.State
}

// Hook replaces a builtin stage; its result becomes the working set.
type Hook func(ctx context.Context, params Params) ([]nt.Record, error)

// Hooks optionally replace the builtin stages.
type Hooks struct {
	Filter Hook
	Sort   Hook
}

// Async is true when any stage is delegated to a hook.
func (hooks Hooks) Async() bool {
	return hooks.Filter != nil || hooks.Sort != nil
}

// Snapshot is the input of one recompute. States must not be shared with a writer.
type Snapshot struct {
	Records []nt.Record
	Filter  *filter.State
	Sort    *sorting.State
}

// Result is published once per settled recompute.
type Result struct {
	Generation uint64
	View       []nt.Record
	Err        error
}

// Apply runs both stages over a shallow copy of the records.
func Apply(ctx context.Context, hooks Hooks, snap Snapshot) (data []nt.Record, err error) {

	data = slices.Clone(snap.Records)

	if hooks.Filter != nil {
		data, err = hooks.Filter(ctx, Params{Data: data, Type: FilterStage, Filter: snap.Filter, Sort: snap.Sort})
		if err != nil {
			err = errors.Wrapf(err, "filter hook failed")
			return
		}
	} else {
		data = snap.Filter.Apply(data)
	}

	if hooks.Sort != nil {
		data, err = hooks.Sort(ctx, Params{Data: data, Type: SortStage, Filter: snap.Filter, Sort: snap.Sort})
		err = errors.Wrapf(err, "sort hook failed")
		return
	}

	snap.Sort.Apply(data)
	return
}

// Pipeline schedules recomputes, publishing only the latest.
// Without hooks a recompute settles before Schedule returns.
type Pipeline struct {
	hooks    Hooks
	onSettle func(Result)

	mu         sync.Mutex
	gen        uint64
	settled    uint64
	view       []nt.Record
	err        error
	changed    chan struct{}
	cancel     context.CancelFunc
	pending    *Result
	delivering bool
}

// New creates a Pipeline; onSettle, when not nil, is called after each publish, outside any lock.
// Calls to onSettle never overlap and carry increasing generations; a result published while
// another is being delivered may be folded into a later one.
func New(hooks Hooks, onSettle func(Result)) *Pipeline {

	return &Pipeline{
		hooks:    hooks,
		onSettle: onSettle,
		view:     []nt.Record{},
		changed:  make(chan struct{}),
	}
}

// Schedule starts a recompute, superseding any still in flight.
// The snapshot is taken while scheduling is serialized, so the latest schedule sees the latest state.
func (pl *Pipeline) Schedule(ctx context.Context, snapshot func() Snapshot) {

	pl.mu.Lock()
	snap := snapshot()
	if pl.cancel != nil {
		pl.cancel()
		pl.cancel = nil
	}
	pl.gen++
	gen := pl.gen

	if !pl.hooks.Async() {
		pl.mu.Unlock()
		view, err := Apply(ctx, pl.hooks, snap)
		pl.publish(gen, view, err)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	pl.cancel = cancel
	pl.mu.Unlock()

	go func() {
		defer cancel()
		view, err := Apply(ctx, pl.hooks, snap)
		pl.publish(gen, view, err)
	}()
}

// Wait blocks until the latest scheduled recompute has settled, returning its error.
func (pl *Pipeline) Wait(ctx context.Context) error {

	for {
		pl.mu.Lock()
		if pl.settled == pl.gen {
			err := pl.err
			pl.mu.Unlock()
			return err
		}
		changed := pl.changed
		pl.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "gave up waiting on pipeline")
		}
	}
}

// Pending is true while a recompute is in flight.
func (pl *Pipeline) Pending() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.settled != pl.gen
}

// View returns the published view; callers must not modify it.
func (pl *Pipeline) View() []nt.Record {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.view
}

// Len is the number of records in the published view.
func (pl *Pipeline) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.view)
}

// Close cancels a recompute in flight.
func (pl *Pipeline) Close() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.cancel != nil {
		pl.cancel()
		pl.cancel = nil
	}
}

// unexported

func (pl *Pipeline) publish(gen uint64, view []nt.Record, err error) {

	pl.mu.Lock()
	if gen != pl.gen {
		// superseded
		pl.mu.Unlock()
		return
	}
	if err == nil {
		pl.view = view
	}
	pl.pending = &Result{Generation: gen, View: pl.view, Err: err}

	if pl.delivering {
		// the delivering call hands this on once its onSettle returns;
		// waiters are released now so a reentrant Settle cannot block on it
		pl.release(gen, err)
		pl.mu.Unlock()
		return
	}

	pl.delivering = true
	for pl.pending != nil {
		result := *pl.pending
		pl.pending = nil
		pl.mu.Unlock()

		if pl.onSettle != nil {
			pl.onSettle(result)
		}

		// waiters are released only once onSettle has run
		pl.mu.Lock()
		pl.release(result.Generation, result.Err)
	}
	pl.delivering = false
	pl.mu.Unlock()
}

// release records gen as settled and wakes waiters; pl.mu must be held.
func (pl *Pipeline) release(gen uint64, err error) {

	if gen > pl.settled {
		pl.settled = gen
		pl.err = err
	}
	close(pl.changed)
	pl.changed = make(chan struct{})
}
