package http

import (
	"io"
	"net/http"
	"time"

	"github.com/atinyakov/cardash/internal/middleware"
	"github.com/atinyakov/cardash/internal/view"
)

// CarList handles GET /carlist. It mounts a new list view, starts its
// single fetch and waits up to RenderWait for it before rendering.
func (h *PageHandler) CarList(w http.ResponseWriter, r *http.Request) {
	v := view.NewCarListView(h.Cars, view.WithCarListLogger(h.logger()))
	h.Views.Add(v)
	done := v.Mount()

	timer := time.NewTimer(h.RenderWait)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
	case <-r.Context().Done():
		return
	}
	h.writeCarList(w, v)
}

// CarListRerender handles GET /carlist/{viewID}: it renders the mounted
// view's current state and never fetches.
func (h *PageHandler) CarListRerender(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.GetViewFromContext(r.Context()).(*view.CarListView)
	if !ok {
		http.Error(w, "view is not a car list", http.StatusNotFound)
		return
	}
	h.writeCarList(w, v)
}

func (h *PageHandler) writeCarList(w http.ResponseWriter, v *view.CarListView) {
	snap := v.Snapshot()
	h.writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return h.Renderer.CarList(out, snap, "/carlist/"+snap.ID)
	})
}
