package store

import "sync"

// Observable is the read side of a Cell.
type Observable[T any] interface {
	Get() T
	Subscribe(fn func(T)) (cancel func())
}

// Cell holds one value and broadcasts every change to its subscribers.
// It has a single writer; concurrent Set calls are still delivered one at a
// time and in the order they acquired the cell.
// Subscriber callbacks run synchronously and must not call Set on the same cell.
type Cell[T any] struct {
	deliver sync.Mutex
	mu      sync.Mutex
	value   T
	nextID  int
	subs    []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// NewState returns a cell for a repository stream in the initial phase.
func NewState[T any]() *Cell[Value[T]] {
	return NewCell(Initial[T]())
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *Cell[T]) Set(v T) {
	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	c.value = v
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe delivers the current value immediately, then every later one.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	current := c.value
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}
