// Package panicerr turns panics in background work into ordinary errors so
// one bad message cannot take a worker goroutine down.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Call runs fn and returns its error, or the recovered panic as an error.
func Call(fn func() error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn()
	})
	if err != nil {
		return err
	}
	return catcher.Recovered().AsError()
}

// CallContext is Call for functions that take a context.
func CallContext(ctx context.Context, fn func(context.Context) error) error {
	return Call(func() error { return fn(ctx) })
}
