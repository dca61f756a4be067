package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/cardash/internal/observability"
)

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WithRequestLogging(zap.New(core)))
	r.Get("/carlist", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("home"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/carlist", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "GET", first["method"])
	assert.Equal(t, "/carlist", first["path"])
	assert.EqualValues(t, http.StatusTeapot, first["status"])
	assert.EqualValues(t, len("short and stout"), first["bytes"])
	assert.NotEmpty(t, first["request_id"])

	assert.EqualValues(t, http.StatusOK, entries[1].ContextMap()["status"])
}

func TestWithMetrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(WithMetrics(m))
	r.Get("/carlist/{viewID}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/carlist/a", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/carlist/b", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/carlist/{viewID}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}
