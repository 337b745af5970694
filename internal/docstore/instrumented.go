package docstore

import (
	"context"
	"time"
)

// Observer receives one call per store operation.
type Observer interface {
	ObserveDocumentOp(op, collection string, err error, elapsed time.Duration)
}

type instrumented struct {
	next Store
	obs  Observer
}

// Instrumented wraps next so that every operation is reported to obs.
func Instrumented(next Store, obs Observer) Store {
	if obs == nil {
		return next
	}
	return &instrumented{next: next, obs: obs}
}

func (s *instrumented) observe(op, collection string, start time.Time, err error) {
	s.obs.ObserveDocumentOp(op, collection, err, time.Since(start))
}

func (s *instrumented) Get(ctx context.Context, collection, id string) (data []byte, err error) {
	defer func(start time.Time) { s.observe("get", collection, start, err) }(time.Now())
	return s.next.Get(ctx, collection, id)
}

func (s *instrumented) Set(ctx context.Context, collection, id string, data []byte) (err error) {
	defer func(start time.Time) { s.observe("set", collection, start, err) }(time.Now())
	return s.next.Set(ctx, collection, id, data)
}

func (s *instrumented) Add(ctx context.Context, collection string, data []byte) (id string, err error) {
	defer func(start time.Time) { s.observe("add", collection, start, err) }(time.Now())
	return s.next.Add(ctx, collection, data)
}

func (s *instrumented) Update(ctx context.Context, collection, id string, data []byte) (err error) {
	defer func(start time.Time) { s.observe("update", collection, start, err) }(time.Now())
	return s.next.Update(ctx, collection, id, data)
}

func (s *instrumented) Delete(ctx context.Context, collection, id string) (err error) {
	defer func(start time.Time) { s.observe("delete", collection, start, err) }(time.Now())
	return s.next.Delete(ctx, collection, id)
}

func (s *instrumented) Query(ctx context.Context, collection string, filters ...Filter) (snaps []Snapshot, err error) {
	defer func(start time.Time) { s.observe("query", collection, start, err) }(time.Now())
	return s.next.Query(ctx, collection, filters...)
}
