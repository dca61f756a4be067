package view

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/models"
)

// CarService is the backend surface the car list needs.
type CarService interface {
	// ListCars returns the inventory in server order.
	ListCars(ctx context.Context) ([]models.Car, error)
}

// CarListOption configures a CarListView.
type CarListOption func(*CarListView)

// WithCarListLogger sets where fetch failures and id anomalies are logged.
func WithCarListLogger(l *zap.Logger) CarListOption {
	return func(v *CarListView) {
		if l != nil {
			v.log = l
		}
	}
}

// CarListSnapshot is a consistent copy of a CarListView for rendering.
type CarListSnapshot struct {
	ID    string
	State State[[]models.Car]
}

// Cars returns the cars to render: the last successful payload, or none.
func (s CarListSnapshot) Cars() []models.Car {
	return s.State.Data
}

// CarListView is one mounted car inventory page. It fetches at most once
// for its whole lifetime.
type CarListView struct {
	id  string
	svc CarService
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	once sync.Once
	done chan struct{}

	mu    sync.Mutex
	state State[[]models.Car]
}

// NewCarListView creates an unfetched list view. Its fetch is bound to an
// internal context that Unmount cancels.
func NewCarListView(svc CarService, opts ...CarListOption) *CarListView {
	ctx, cancel := context.WithCancel(context.Background())
	v := &CarListView{
		id:     uuid.NewString(),
		svc:    svc,
		log:    zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  State[[]models.Car]{Data: []models.Car{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// ID returns the instance identifier.
func (v *CarListView) ID() string { return v.id }

// Kind returns "carlist".
func (v *CarListView) Kind() string { return "carlist" }

// Unmount cancels an in-flight fetch. The view must not be mounted again.
func (v *CarListView) Unmount() { v.cancel() }

// Mount starts the single list fetch on the first call and returns a channel
// closed once it settles. Later calls return the same channel.
func (v *CarListView) Mount() <-chan struct{} {
	v.once.Do(func() {
		v.mu.Lock()
		v.state = v.state.loading()
		v.mu.Unlock()
		go v.fetch()
	})
	return v.done
}

// Snapshot returns the current state without fetching.
func (v *CarListView) Snapshot() CarListSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return CarListSnapshot{ID: v.id, State: v.state}
}

func (v *CarListView) fetch() {
	defer close(v.done)

	cars, err := v.svc.ListCars(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.log.Error("car list fetch failed", zap.String("view", v.id), zap.Error(err))
		v.state = v.state.failed(err)
		return
	}
	if cars == nil {
		cars = []models.Car{}
	}
	v.checkIDs(cars)
	v.state = v.state.loaded(cars)
}

// checkIDs warns about cars whose render key is empty or repeated. They are
// still rendered in server order.
func (v *CarListView) checkIDs(cars []models.Car) {
	seen := make(map[models.CarID]struct{}, len(cars))
	for i, c := range cars {
		if c.ID == "" {
			v.log.Warn("car without id", zap.String("view", v.id), zap.Int("index", i))
			continue
		}
		if _, dup := seen[c.ID]; dup {
			v.log.Warn("duplicate car id", zap.String("view", v.id), zap.String("id", string(c.ID)))
			continue
		}
		seen[c.ID] = struct{}{}
	}
}
