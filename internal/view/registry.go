package view

import (
	"sync"
	"time"

	"github.com/atinyakov/cardash/internal/observability"
)

// View is a mounted page instance tracked by the Registry.
type View interface {
	ID() string
	Kind() string
	Unmount()
}

type entry struct {
	view    View
	touched time.Time
}

// Registry tracks mounted views by id so follow-up requests (form posts,
// keystrokes, re-renders) reach the instance that rendered the page.
type Registry struct {
	mu      sync.Mutex
	views   map[string]*entry
	now     func() time.Time
	metrics *observability.Metrics
}

// NewRegistry returns an empty registry. metrics may be nil.
func NewRegistry(metrics *observability.Metrics) *Registry {
	return &Registry{
		views:   make(map[string]*entry),
		now:     time.Now,
		metrics: metrics,
	}
}

// Add mounts v.
func (r *Registry) Add(v View) {
	r.mu.Lock()
	r.views[v.ID()] = &entry{view: v, touched: r.now()}
	n := len(r.views)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ViewsMountedTotal.WithLabelValues(v.Kind()).Inc()
		r.metrics.ViewsActive.Set(float64(n))
	}
}

// Get returns the view with id and marks it as recently used.
func (r *Registry) Get(id string) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[id]
	if !ok {
		return nil, false
	}
	e.touched = r.now()
	return e.view, true
}

// Form returns the form view with id.
func (r *Registry) Form(id string) (*FormView, bool) {
	v, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	f, ok := v.(*FormView)
	return f, ok
}

// CarList returns the car list view with id.
func (r *Registry) CarList(id string) (*CarListView, bool) {
	v, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	c, ok := v.(*CarListView)
	return c, ok
}

// Remove unmounts and forgets the view with id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.views[id]
	if ok {
		delete(r.views, id)
	}
	n := len(r.views)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.view.Unmount()
	r.setActive(n)
	return true
}

// Sweep unmounts every view not used within ttl and reports how many went.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var stale []View
	for id, e := range r.views {
		if e.touched.Before(cutoff) {
			stale = append(stale, e.view)
			delete(r.views, id)
		}
	}
	n := len(r.views)
	r.mu.Unlock()

	for _, v := range stale {
		v.Unmount()
	}
	r.setActive(n)
	return len(stale)
}

// Len returns the number of mounted views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) setActive(n int) {
	if r.metrics != nil {
		r.metrics.ViewsActive.Set(float64(n))
	}
}
