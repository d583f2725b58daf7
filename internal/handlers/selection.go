package handlers

import (
	"bytes"
	"net/http"

	"github.com/routine-advisor/advisor/internal/models"
)

// HandleToggle flips a product's selection and answers with the summary and
// grid as out-of-band swaps.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if _, err := controllerFrom(r).Toggle(r.Context(), &buf, id); err != nil {
		h.renderError(w, err)
		return
	}
	h.writeFragment(w, &buf)
}

// HandleRemove deselects a product. Removing an unselected product is a no-op.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	h.writeHTML(w, func(buf *bytes.Buffer) error {
		return controllerFrom(r).Remove(r.Context(), buf, id)
	})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, func(buf *bytes.Buffer) error {
		return controllerFrom(r).Clear(r.Context(), buf)
	})
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, func(buf *bytes.Buffer) error {
		return controllerFrom(r).Summary(buf)
	})
}

type selectionResponse struct {
	SelectedProducts []models.ProductID `json:"selectedProducts"`
	Products         []models.Product   `json:"products"`
}

// HandleSelectionJSON returns the visitor's selection
func (h *Handler) HandleSelectionJSON(w http.ResponseWriter, r *http.Request) {
	products := controllerFrom(r).Selected()
	resp := selectionResponse{
		SelectedProducts: make([]models.ProductID, 0, len(products)),
		Products:         products,
	}
	for _, p := range products {
		resp.SelectedProducts = append(resp.SelectedProducts, p.ID)
	}
	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	h.writeJSON(w, resp)
}
