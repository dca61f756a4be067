// Package middleware provides HTTP middlewares for view lookup, request
// logging and metrics.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/cardash/internal/view"
)

type ctxKey string

const viewKey ctxKey = "view"

// ViewParam is the chi URL parameter LoadView reads.
const ViewParam = "viewID"

// LoadView is a middleware that resolves the mounted view named by the
// {viewID} route parameter.
//
// Unknown or expired ids get a 404 and never reach next. On success the
// view is stored in the request context for GetViewFromContext.
func LoadView(reg *view.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, ViewParam)
			if id == "" {
				http.Error(w, "view id required", http.StatusNotFound)
				return
			}
			v, ok := reg.Get(id)
			if !ok {
				http.Error(w, "view not mounted", http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), viewKey, v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewFromContext returns the view stored by LoadView, or nil.
func GetViewFromContext(ctx context.Context) view.View {
	if v, ok := ctx.Value(viewKey).(view.View); ok {
		return v
	}
	return nil
}
