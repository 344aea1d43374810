package sink

import (
	"context"
	"errors"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// Closer is implemented by sinks with background work to drain.
type Closer interface {
	Close(ctx context.Context) error
}

// Fanout submits every result to each of its sinks in order.
type Fanout []engine.Sink

// Submit implements engine.Sink.
func (f Fanout) Submit(res engine.Result) {
	for _, s := range f {
		if s != nil {
			s.Submit(res)
		}
	}
}

// Close drains every member that supports it.
func (f Fanout) Close(ctx context.Context) error {
	var errs []error
	for _, s := range f {
		if c, ok := s.(Closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
