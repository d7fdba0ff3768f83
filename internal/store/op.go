package store

import (
	"context"
	"sync"
)

// Op is one optimistic mutation: a local change already applied, the
// backend call that confirms it, and the inverse used if that call fails.
//
// Commit only runs the backend call, so it may run on another goroutine.
// Settle touches local state and must run on the goroutine that owns the
// store. Run does both in sequence.
type Op struct {
	commit func(ctx context.Context) error
	revert func()
	then   []func(error)

	once sync.Once
	err  error
}

// Begin applies the local change and returns the pending op. If apply
// fails nothing was changed and no op is returned. revert may be nil when
// there is nothing to undo locally.
func Begin(apply func() error, revert func(), commit func(ctx context.Context) error) (*Op, error) {
	if apply != nil {
		if err := apply(); err != nil {
			return nil, err
		}
	}
	return &Op{commit: commit, revert: revert}, nil
}

// Then registers fn to run when the op settles, with the commit error
func (o *Op) Then(fn func(err error)) *Op {
	o.then = append(o.then, fn)
	return o
}

// Commit runs the backend call
func (o *Op) Commit(ctx context.Context) error {
	if o.commit == nil {
		return nil
	}
	return o.commit(ctx)
}

// Settle finishes the op with the result of Commit. A non-nil err runs the
// inverse before the Then callbacks. Settling twice is a no-op that returns
// the first result.
func (o *Op) Settle(err error) error {
	o.once.Do(func() {
		o.err = err
		if err != nil && o.revert != nil {
			o.revert()
		}
		for _, fn := range o.then {
			fn(err)
		}
	})
	return o.err
}

// Run commits and settles on the calling goroutine
func (o *Op) Run(ctx context.Context) error {
	return o.Settle(o.Commit(ctx))
}
