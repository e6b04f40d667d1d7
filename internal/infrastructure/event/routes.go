package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/shopfront/backend/internal/domain/shared"
)

// routeTable is an immutable view of who listens to what. Handlers with
// no event types listen to everything.
type routeTable struct {
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
}

// routes is read on every publish and written only at wiring time, so
// publishers read a snapshot without locking and writers swap in a copy.
type routes struct {
	mu    sync.Mutex
	table atomic.Pointer[routeTable]
}

func newRoutes() *routes {
	r := &routes{}
	r.table.Store(&routeTable{byType: map[string][]shared.EventHandler{}})
	return r
}

func (r *routes) add(h shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.table.Load().clone()
	if len(eventTypes) == 0 {
		next.catchAll = append(next.catchAll, h)
	}
	for _, t := range eventTypes {
		next.byType[t] = append(next.byType[t], h)
	}
	r.table.Store(next)
}

func (r *routes) remove(h shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.table.Load().clone()
	isTarget := func(x shared.EventHandler) bool { return x == h }
	next.catchAll = slices.DeleteFunc(next.catchAll, isTarget)
	for t, hs := range next.byType {
		if hs = slices.DeleteFunc(hs, isTarget); len(hs) == 0 {
			delete(next.byType, t)
		} else {
			next.byType[t] = hs
		}
	}
	r.table.Store(next)
}

// lookup returns the type's own handlers first, then the catch-all ones.
func (r *routes) lookup(eventType string) []shared.EventHandler {
	t := r.table.Load()
	return slices.Concat(t.byType[eventType], t.catchAll)
}

// size counts distinct handlers.
func (r *routes) size() int {
	t := r.table.Load()
	seen := make(map[shared.EventHandler]struct{})
	for _, h := range t.catchAll {
		seen[h] = struct{}{}
	}
	for _, hs := range t.byType {
		for _, h := range hs {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

func (t *routeTable) clone() *routeTable {
	c := &routeTable{
		byType:   make(map[string][]shared.EventHandler, len(t.byType)),
		catchAll: slices.Clone(t.catchAll),
	}
	for k, v := range t.byType {
		c.byType[k] = slices.Clone(v)
	}
	return c
}
