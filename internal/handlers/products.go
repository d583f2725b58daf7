package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/routine-advisor/advisor/internal/filter"
	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/session"
)

// HandleIndex renders the full page. Filter parameters in the query restore
// the grid, so pushed URLs survive a reload.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(r)
	if q := r.URL.Query(); q.Has("category") || q.Has("q") {
		if err := ctrl.Filter(&bytes.Buffer{}, filter.FromQuery(q)); err != nil {
			h.writeError(w, "Unable to render products", http.StatusInternalServerError)
			return
		}
	}
	h.writeHTML(w, func(buf *bytes.Buffer) error { return ctrl.Page(buf) })
}

// HandleProducts applies the category and search controls and renders the grid
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	criteria := filter.FromQuery(r.URL.Query())
	push := "/"
	if q := criteria.Query(); len(q) > 0 {
		push += "?" + q.Encode()
	}
	w.Header().Set("HX-Push-Url", push)
	h.writeHTML(w, func(buf *bytes.Buffer) error {
		return controllerFrom(r).Filter(buf, criteria)
	})
}

func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	h.detail(w, r, true)
}

func (h *Handler) HandleDetailClose(w http.ResponseWriter, r *http.Request) {
	h.detail(w, r, false)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request, open bool) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := controllerFrom(r).Detail(&buf, id, open); err != nil {
		h.renderError(w, err)
		return
	}
	h.writeFragment(w, &buf)
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (models.ProductID, bool) {
	raw, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || raw == "" {
		h.writeError(w, "Invalid product id", http.StatusBadRequest)
		return "", false
	}
	return models.ProductID(raw), true
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrUnknownProduct) {
		h.writeError(w, "Product not found", http.StatusNotFound)
		return
	}
	h.writeError(w, "Unable to render response: "+err.Error(), http.StatusInternalServerError)
}
