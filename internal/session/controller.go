// Package session owns per-visitor state: filter controls, the selection,
// the conversation and the views rendered from them.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/filter"
	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/render"
	"github.com/routine-advisor/advisor/internal/selection"
)

// ErrUnknownProduct is returned for product ids missing from the catalog
var ErrUnknownProduct = selection.ErrUnknownProduct

// Controller serializes a visitor's selection and filter changes with the
// render that follows them. Chat requests take only the chat session's lock,
// so a pending reply never blocks selection changes.
type Controller struct {
	mu        sync.Mutex
	visitor   string
	title     string
	catalog   *models.Catalog
	selection *selection.Store
	criteria  filter.Criteria
	chat      *chat.Session
	renderer  *render.Renderer

	grid    render.GridView
	summary render.SummaryView
}

// NewController binds a visitor's restored selection and chat session. The
// selection's change listener keeps the grid and summary views current.
func NewController(visitor string, catalog *models.Catalog, sel *selection.Store, cs *chat.Session, r *render.Renderer) *Controller {
	c := &Controller{
		visitor:   visitor,
		title:     DefaultTitle,
		catalog:   catalog,
		selection: sel,
		chat:      cs,
		renderer:  r,
	}
	sel.OnChange(c.project)
	c.project(sel.Products())
	return c
}

// DefaultTitle is the page heading
const DefaultTitle = "Smart Routine & Product Advisor"

// Visitor returns the visitor id
func (c *Controller) Visitor() string { return c.visitor }

// project re-renders the grid and summary views from the current state
func (c *Controller) project(selected []models.Product) {
	ids := make([]models.ProductID, 0, len(selected))
	for _, p := range selected {
		ids = append(ids, p.ID)
	}
	c.grid = render.BuildGrid(c.catalog.Products, ids, c.criteria)
	c.summary = render.SummaryView{Products: selected}
}

// Page renders the full page
func (c *Controller) Page(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Page(w, render.PageView{
		Title:      c.title,
		Categories: c.catalog.Categories(),
		Criteria:   c.criteria,
		Grid:       c.grid,
		Summary:    c.summary,
		Chat:       c.renderer.BuildChat(c.chat.Transcript()),
	})
}

// Filter replaces the filter controls and renders the grid
func (c *Controller) Filter(w io.Writer, criteria filter.Criteria) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = criteria
	c.project(c.selection.Products())
	return c.renderer.Grid(w, c.catalog.Products, c.selection.IDs(), c.criteria)
}

// Toggle flips a product's selection and renders both views
func (c *Controller) Toggle(ctx context.Context, w io.Writer, id models.ProductID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected, err := c.selection.Toggle(ctx, id)
	if err != nil {
		return false, err
	}
	return selected, c.renderer.Mutation(w, c.grid, c.summary)
}

// Remove deselects a product and renders both views
func (c *Controller) Remove(ctx context.Context, w io.Writer, id models.ProductID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Remove(ctx, id)
	return c.renderer.Mutation(w, c.grid, c.summary)
}

// Clear empties the selection and renders both views
func (c *Controller) Clear(ctx context.Context, w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear(ctx)
	return c.renderer.Mutation(w, c.grid, c.summary)
}

// Summary renders the selected-products list
func (c *Controller) Summary(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Summary(w, c.summary.Products)
}

// Selected returns the selected products in selection order
func (c *Controller) Selected() []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Products()
}

// Detail renders a product's description overlay, open or closed. It never
// touches the selection.
func (c *Controller) Detail(w io.Writer, id models.ProductID, open bool) error {
	p, ok := c.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return c.renderer.Detail(w, p, open)
}

// Send posts a chat message. ErrBusy and ErrEmptyMessage are returned before
// anything is rendered; other chat failures are shown in the transcript.
func (c *Controller) Send(ctx context.Context, w io.Writer, text string) error {
	_, err := c.chat.Send(ctx, text)
	if errors.Is(err, chat.ErrBusy) || errors.Is(err, chat.ErrEmptyMessage) {
		return err
	}
	return c.renderer.Chat(w, c.chat.Transcript())
}

// Routine requests a routine for the current selection
func (c *Controller) Routine(ctx context.Context, w io.Writer) error {
	_, err := c.chat.GenerateRoutine(ctx, c.Selected())
	if errors.Is(err, chat.ErrBusy) {
		return err
	}
	return c.renderer.Chat(w, c.chat.Transcript())
}

// Chat renders the chat window
func (c *Controller) Chat(w io.Writer) error {
	return c.renderer.Chat(w, c.chat.Transcript())
}

// Messages returns the conversation log
func (c *Controller) Messages() []models.ChatMessage {
	return c.chat.Messages()
}
