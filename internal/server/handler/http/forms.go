// Package http provides the dashboard's page handlers and router.
package http

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/middleware"
	"github.com/atinyakov/cardash/internal/render"
	"github.com/atinyakov/cardash/internal/view"
)

// PageHandler serves the four views and their follow-up requests.
type PageHandler struct {
	// Accounts performs sign-up and sign-in calls.
	Accounts view.AccountService
	// Cars fetches the inventory.
	Cars view.CarService
	// Views tracks mounted view instances.
	Views *view.Registry
	// Renderer writes the HTML pages.
	Renderer *render.Renderer
	// ResetPolicy is applied to every mounted form.
	ResetPolicy view.ResetPolicy
	// RenderWait bounds how long CarList waits for its first fetch.
	RenderWait time.Duration
	// Logger receives view-level logs; nil means no logging.
	Logger *zap.Logger
}

func (h *PageHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// Home renders the landing page.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, http.StatusOK, h.Renderer.Home)
}

// SignUp mounts a fresh sign-up form.
func (h *PageHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, view.SignUp)
}

// SignIn mounts a fresh sign-in form.
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, view.SignIn)
}

// SubmitSignUp handles POST /signup.
func (h *PageHandler) SubmitSignUp(w http.ResponseWriter, r *http.Request) {
	h.submitForm(w, r, view.SignUp)
}

// SubmitSignIn handles POST /signin.
func (h *PageHandler) SubmitSignIn(w http.ResponseWriter, r *http.Request) {
	h.submitForm(w, r, view.SignIn)
}

// Input echoes one keystroke into a mounted form. It expects form values
// "field" (username or password) and "value".
func (h *PageHandler) Input(w http.ResponseWriter, r *http.Request) {
	f, ok := middleware.GetViewFromContext(r.Context()).(*view.FormView)
	if !ok {
		http.Error(w, "view is not a form", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	field := view.Field(r.PostForm.Get("field"))
	if err := f.Change(field, r.PostForm.Get("value")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) mountForm(kind view.FormKind) *view.FormView {
	f := view.NewFormView(kind, h.Accounts,
		view.WithResetPolicy(h.ResetPolicy),
		view.WithFormLogger(h.logger()),
	)
	h.Views.Add(f)
	return f
}

func (h *PageHandler) showForm(w http.ResponseWriter, kind view.FormKind) {
	f := h.mountForm(kind)
	h.writeForm(w, http.StatusOK, f.Snapshot())
}

// submitForm applies the posted fields to the mounted form and submits it.
// A post from an expired page mounts a fresh form rather than failing. Any
// posted field the form does not have is a 400, and nothing is sent.
func (h *PageHandler) submitForm(w http.ResponseWriter, r *http.Request, kind view.FormKind) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	f, ok := h.Views.Form(r.PostForm.Get("view"))
	if !ok || f.FormKind() != kind {
		f = h.mountForm(kind)
	}

	for _, key := range slices.Sorted(maps.Keys(r.PostForm)) {
		vals := r.PostForm[key]
		if key == "view" || len(vals) == 0 {
			continue
		}
		if err := f.Change(view.Field(key), vals[0]); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if _, err := f.Submit(r.Context()); err != nil {
		if errors.Is(err, view.ErrSubmitInFlight) {
			h.writeForm(w, http.StatusConflict, f.Snapshot())
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeForm(w, http.StatusOK, f.Snapshot())
}

func (h *PageHandler) writeForm(w http.ResponseWriter, status int, snap view.FormSnapshot) {
	h.writeHTML(w, status, func(out io.Writer) error {
		return h.Renderer.Form(out, snap)
	})
}

// NotFound renders the explicit not-found view.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, http.StatusNotFound, func(out io.Writer) error {
		return h.Renderer.NotFound(out, r.URL.Path)
	})
}

// writeHTML renders into a buffer first so a template error can still
// produce a clean 500.
func (h *PageHandler) writeHTML(w http.ResponseWriter, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.logger().Error("render failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
