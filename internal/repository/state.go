// Package repository holds the observable state of each backend concern.
// Reads go loading -> loaded|empty|error. Writes go updating -> re-fetch ->
// loaded|empty; a failed write re-fetches once to resync and lands in error
// only if that also fails.
package repository

import (
	"context"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/internal/transport"
)

type stream[T any] struct {
	cell    *store.Cell[store.Value[T]]
	isEmpty func(T) bool
	logger  *slog.Logger
}

func newStream[T any](isEmpty func(T) bool, logger *slog.Logger) *stream[T] {
	return &stream[T]{cell: store.NewState[T](), isEmpty: isEmpty, logger: logger}
}

func (s *stream[T]) publish(data T) {
	if s.isEmpty(data) {
		s.cell.Set(store.Empty[T]())
		return
	}
	s.cell.Set(store.Loaded(data))
}

func (s *stream[T]) load(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	s.cell.Set(store.Loading[T]())
	data, err := fetch(ctx)
	if err != nil {
		s.cell.Set(store.Failed[T](transport.UserMessage(err)))
		var zero T
		return zero, err
	}
	s.publish(data)
	return data, nil
}

// mutate runs write and then re-reads the canonical resource through fetch.
// The same fetch resyncs the stream when write fails.
func (s *stream[T]) mutate(ctx context.Context, write func(context.Context) error, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	s.cell.Set(store.Updating(s.cell.Get().Data))

	if err := write(ctx); err != nil {
		s.resync(ctx, fetch, err)
		return zero, err
	}

	data, err := fetch(ctx)
	if err != nil {
		s.cell.Set(store.Failed[T](transport.UserMessage(err)))
		return zero, err
	}
	s.publish(data)
	return data, nil
}

func (s *stream[T]) resync(ctx context.Context, fetch func(context.Context) (T, error), cause error) {
	data, err := fetch(ctx)
	if err != nil {
		s.logger.Warn("resync after failed mutation failed", "cause", cause, "error", err)
		s.cell.Set(store.Failed[T](transport.UserMessage(cause)))
		return
	}
	s.publish(data)
}
