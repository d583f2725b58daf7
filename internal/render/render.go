// Package render turns catalog, selection and chat state into HTML
// fragments. Every call renders from state and fully replaces the previous
// output of the same fragment.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/filter"
	"github.com/routine-advisor/advisor/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded stylesheet and assets, rooted at static/
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer executes the embedded templates
type Renderer struct {
	tmpl   *template.Template
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New parses the embedded templates
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"pathEscape": url.PathEscape,
		"domID":      DetailID,
		"title":      title,

		"userLabel":      func() string { return chat.UserLabel },
		"thinkingText":   func() string { return chat.ThinkingText },
		"generatingText": func() string { return chat.GeneratingText },
	}
	tmpl, err := template.New("_root").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		tmpl: tmpl,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: newReplyPolicy(),
	}, nil
}

func newReplyPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// Card is one product in the grid
type Card struct {
	models.Product
	Selected bool
	Detail   DetailView
}

// DetailView is the description overlay of a card
type DetailView struct {
	ID          models.ProductID
	Description string
	Open        bool
}

// GridView is the product grid fragment
type GridView struct {
	Active bool
	Cards  []Card
	OOB    bool
}

// SummaryView is the selected-products fragment
type SummaryView struct {
	Products []models.Product
	OOB      bool
}

// ChatEntry is a transcript entry ready for display
type ChatEntry struct {
	Kind  chat.EntryKind
	Label string
	Text  string
	HTML  template.HTML
}

// ChatView is the chat window fragment
type ChatView struct {
	Entries []ChatEntry
	OOB     bool
}

// PageView is the full page
type PageView struct {
	Title      string
	Categories []string
	Criteria   filter.Criteria
	Grid       GridView
	Summary    SummaryView
	Chat       ChatView
}

// BuildGrid filters products by criteria and marks the selected ones
func BuildGrid(products []models.Product, selected []models.ProductID, criteria filter.Criteria) GridView {
	view := GridView{Active: criteria.Active()}
	if !view.Active {
		return view
	}
	isSelected := make(map[models.ProductID]struct{}, len(selected))
	for _, id := range selected {
		isSelected[id] = struct{}{}
	}
	for _, p := range filter.Apply(products, criteria) {
		_, sel := isSelected[p.ID]
		view.Cards = append(view.Cards, Card{
			Product:  p,
			Selected: sel,
			Detail:   DetailView{ID: p.ID, Description: p.Description},
		})
	}
	return view
}

// BuildChat converts transcript entries, rendering assistant replies from
// Markdown into sanitized HTML.
func (r *Renderer) BuildChat(entries []chat.Entry) ChatView {
	view := ChatView{Entries: make([]ChatEntry, 0, len(entries))}
	for _, e := range entries {
		ce := ChatEntry{Kind: e.Kind, Label: e.Label, Text: e.Text}
		if e.Kind == chat.EntryAssistant {
			ce.HTML = r.Markdown(e.Text)
		}
		view.Entries = append(view.Entries, ce)
	}
	return view
}

// Markdown renders text as sanitized HTML
func (r *Renderer) Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Page renders the full layout
func (r *Renderer) Page(w io.Writer, view PageView) error {
	return r.tmpl.ExecuteTemplate(w, "page", view)
}

// Grid renders the product grid for products filtered by criteria
func (r *Renderer) Grid(w io.Writer, products []models.Product, selected []models.ProductID, criteria filter.Criteria) error {
	return r.tmpl.ExecuteTemplate(w, "grid", BuildGrid(products, selected, criteria))
}

// Summary renders the selected-products list
func (r *Renderer) Summary(w io.Writer, selected []models.Product) error {
	return r.tmpl.ExecuteTemplate(w, "summary", SummaryView{Products: selected})
}

// Chat renders the chat window
func (r *Renderer) Chat(w io.Writer, entries []chat.Entry) error {
	return r.tmpl.ExecuteTemplate(w, "chat", r.BuildChat(entries))
}

// Detail renders the description overlay of a product, open or closed
func (r *Renderer) Detail(w io.Writer, p models.Product, open bool) error {
	return r.tmpl.ExecuteTemplate(w, "detail", DetailView{ID: p.ID, Description: p.Description, Open: open})
}

// Mutation renders the summary and the grid as out-of-band swaps so a single
// response replaces both views.
func (r *Renderer) Mutation(w io.Writer, grid GridView, summary SummaryView) error {
	grid.OOB = true
	summary.OOB = true
	return r.tmpl.ExecuteTemplate(w, "mutation", struct {
		Grid    GridView
		Summary SummaryView
	}{grid, summary})
}

// DetailID returns the DOM id of a product's description overlay
func DetailID(id string) string {
	var sb strings.Builder
	sb.WriteString("detail-")
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
