package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/cardash/internal/models"
)

// fakeCars implements CarService for testing.
type fakeCars struct {
	cars  []models.Car
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeCars) ListCars(ctx context.Context) ([]models.Car, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.cars, f.err
}

func toyota() models.Car {
	return models.Car{ID: "1", Make: "Toyota", ModelName: "Corolla", Year: "2022", Price: "20000"}
}

func waitSettled(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("car list fetch did not settle")
	}
}

func TestCarListView_MountFetchesOnce(t *testing.T) {
	svc := &fakeCars{cars: []models.Car{toyota()}}
	v := NewCarListView(svc)

	assert.Equal(t, Idle, v.Snapshot().State.Phase)
	assert.Equal(t, int32(0), svc.calls.Load(), "creating a view does not fetch")

	done := v.Mount()
	waitSettled(t, done)
	again := v.Mount()
	waitSettled(t, again)
	for range 5 {
		_ = v.Snapshot()
	}

	assert.Equal(t, int32(1), svc.calls.Load())

	snap := v.Snapshot()
	assert.Equal(t, Loaded, snap.State.Phase)
	if diff := cmp.Diff([]models.Car{toyota()}, snap.Cars()); diff != "" {
		t.Errorf("cars mismatch (-want +got):\n%s", diff)
	}
}

func TestCarListView_KeepsServerOrder(t *testing.T) {
	cars := []models.Car{
		{ID: "9", Make: "Volvo"},
		{ID: "2", Make: "Audi"},
		{ID: "5", Make: "Mazda"},
	}
	v := NewCarListView(&fakeCars{cars: cars})
	waitSettled(t, v.Mount())

	if diff := cmp.Diff(cars, v.Snapshot().Cars()); diff != "" {
		t.Errorf("order changed (-want +got):\n%s", diff)
	}
}

func TestCarListView_FailureRendersNoCars(t *testing.T) {
	svc := &fakeCars{err: errors.New("dial tcp: connection refused")}
	v := NewCarListView(svc)

	require.NotPanics(t, func() { waitSettled(t, v.Mount()) })

	snap := v.Snapshot()
	assert.Equal(t, Failed, snap.State.Phase)
	assert.EqualError(t, snap.State.Err, "dial tcp: connection refused")
	assert.NotNil(t, snap.Cars())
	assert.Empty(t, snap.Cars())
}

func TestCarListView_NilResponseIsEmpty(t *testing.T) {
	v := NewCarListView(&fakeCars{})
	waitSettled(t, v.Mount())

	snap := v.Snapshot()
	assert.Equal(t, Loaded, snap.State.Phase)
	assert.NotNil(t, snap.Cars())
	assert.Empty(t, snap.Cars())
}

func TestCarListView_UnmountCancelsFetch(t *testing.T) {
	svc := &fakeCars{block: true}
	v := NewCarListView(svc)

	done := v.Mount()
	assert.Equal(t, Loading, v.Snapshot().State.Phase)

	v.Unmount()
	waitSettled(t, done)

	snap := v.Snapshot()
	assert.Equal(t, Failed, snap.State.Phase)
	assert.ErrorIs(t, snap.State.Err, context.Canceled)
}

func TestCarListView_WarnsOnMissingAndDuplicateIDs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cars := []models.Car{
		{ID: "1", Make: "Toyota"},
		{ID: "1", Make: "Toyota"},
		{Make: "Ghost"},
	}
	v := NewCarListView(&fakeCars{cars: cars}, WithCarListLogger(zap.New(core)))
	waitSettled(t, v.Mount())

	assert.Len(t, v.Snapshot().Cars(), 3, "all cars are kept")
	assert.Equal(t, 1, logs.FilterMessage("duplicate car id").Len())
	assert.Equal(t, 1, logs.FilterMessage("car without id").Len())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
