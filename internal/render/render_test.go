package render

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/filter"
	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/testutil"
)

var products = []models.Product{
	{ID: "1", Name: "Foaming Cleanser", Brand: "CeraVe", Category: "cleanser", Description: "Gentle foam.", Image: "/img/1.png"},
	{ID: "2", Name: "Retinol Serum", Brand: "L'Oreal", Category: "skincare", Description: "Night retinol."},
	{ID: "3", Name: "Micellar Water", Brand: "Garnier", Category: "cleanser", Description: "No rinse."},
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func cardIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find(".product-card").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("data-product-id", ""))
	})
	return ids
}

func TestGrid(t *testing.T) {
	r := newRenderer(t)

	tests := []struct {
		name        string
		criteria    filter.Criteria
		selected    []models.ProductID
		wantIDs     []string
		wantSel     []string
		placeholder string
	}{
		{
			name:        "no category chosen",
			criteria:    filter.Criteria{},
			placeholder: "Select a category to view products",
		},
		{
			name:     "all products",
			criteria: filter.Criteria{Category: filter.AllCategories},
			selected: []models.ProductID{"3"},
			wantIDs:  []string{"1", "2", "3"},
			wantSel:  []string{"3"},
		},
		{
			name:     "category",
			criteria: filter.Criteria{Category: "cleanser"},
			selected: []models.ProductID{"1", "2"},
			wantIDs:  []string{"1", "3"},
			wantSel:  []string{"1"},
		},
		{
			name:        "search without matches",
			criteria:    filter.Criteria{Category: "all", Search: "shampoo"},
			placeholder: "No products match your search.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Grid(&buf, products, tt.selected, tt.criteria))
			doc := testutil.ParseHTML(t, buf.Bytes())

			assert.Equal(t, 1, doc.Find("#productsContainer").Length())
			assert.Equal(t, tt.wantIDs, cardIDs(doc))

			var sel []string
			doc.Find(".product-card.selected").Each(func(_ int, s *goquery.Selection) {
				sel = append(sel, s.AttrOr("data-product-id", ""))
			})
			assert.Equal(t, tt.wantSel, sel)

			if tt.placeholder != "" {
				assert.Equal(t, tt.placeholder, strings.TrimSpace(doc.Find(".placeholder-message").Text()))
			} else {
				assert.Zero(t, doc.Find(".placeholder-message").Length())
			}
		})
	}
}

func TestGridCardControls(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Grid(&buf, products, nil, filter.Criteria{Category: "all"}))
	doc := testutil.ParseHTML(t, buf.Bytes())

	card := doc.Find(`.product-card[data-product-id="1"]`)
	assert.Equal(t, "/selection/1/toggle", card.AttrOr("hx-post", ""))
	btn := card.Find(".show-desc-btn")
	assert.Equal(t, "/products/1/detail", btn.AttrOr("hx-get", ""))
	assert.Equal(t, "#detail-1", btn.AttrOr("hx-target", ""))
	assert.Contains(t, btn.AttrOr("hx-trigger", ""), "consume")
	assert.Equal(t, 1, card.Find("#detail-1").Length())
	assert.False(t, card.Find("#detail-1").HasClass("open"))
}

func TestDetail(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Detail(&buf, products[1], true))
	doc := testutil.ParseHTML(t, buf.Bytes())
	overlay := doc.Find("#detail-2")
	assert.True(t, overlay.HasClass("open"))
	assert.Contains(t, overlay.Text(), "Night retinol.")
	assert.Equal(t, "/products/2/detail/close", overlay.AttrOr("hx-get", ""))

	buf.Reset()
	require.NoError(t, r.Detail(&buf, products[1], false))
	doc = testutil.ParseHTML(t, buf.Bytes())
	assert.False(t, doc.Find("#detail-2").HasClass("open"))
	assert.Empty(t, strings.TrimSpace(doc.Find("#detail-2").Text()))
}

func TestSummary(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Summary(&buf, nil))
	doc := testutil.ParseHTML(t, buf.Bytes())
	assert.Equal(t, "No products selected yet.", strings.TrimSpace(doc.Find(".placeholder-message").Text()))
	assert.Zero(t, doc.Find("#clearAllBtn").Length())

	buf.Reset()
	require.NoError(t, r.Summary(&buf, []models.Product{products[2], products[0]}))
	doc = testutil.ParseHTML(t, buf.Bytes())
	items := doc.Find(".selected-product-item")
	require.Equal(t, 2, items.Length())
	assert.Contains(t, items.First().Text(), "Micellar Water")
	assert.Equal(t, "/selection/3", items.First().Find(".selected-product-remove").AttrOr("hx-delete", ""))
	assert.Equal(t, 1, doc.Find("#clearAllBtn").Length())
	assert.Zero(t, doc.Find(".placeholder-message").Length())
}

func TestMutationCarriesBothViewsOutOfBand(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	grid := BuildGrid(products, []models.ProductID{"2"}, filter.Criteria{Category: "all"})
	require.NoError(t, r.Mutation(&buf, grid, SummaryView{Products: []models.Product{products[1]}}))
	doc := testutil.ParseHTML(t, buf.Bytes())

	assert.Equal(t, "outerHTML", doc.Find("#productsContainer").AttrOr("hx-swap-oob", ""))
	assert.Equal(t, "outerHTML", doc.Find("#selectedProducts").AttrOr("hx-swap-oob", ""))
	assert.Equal(t, 1, doc.Find(".product-card.selected").Length())
}

func TestChat(t *testing.T) {
	r := newRenderer(t)
	entries := []chat.Entry{
		{Kind: chat.EntryUser, Label: chat.UserLabel, Text: "<b>hi</b>"},
		{Kind: chat.EntryAssistant, Label: chat.AssistantLabel, Text: "1. **Cleanse**\n2. Moisturize<script>alert(1)</script>"},
		{Kind: chat.EntryPending, Text: chat.ThinkingText},
		{Kind: chat.EntryError, Label: chat.ErrorLabel, Text: chat.NoReplyText},
		{Kind: chat.EntryTip, Label: chat.TipLabel, Text: chat.SelectSomethingTip},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Chat(&buf, entries))
	doc := testutil.ParseHTML(t, buf.Bytes())

	msgs := doc.Find("#chatWindow .chat-message")
	require.Equal(t, 5, msgs.Length())

	user := msgs.Eq(0)
	assert.True(t, user.HasClass("user"))
	assert.Zero(t, user.Find("b").Length(), "user text is escaped")
	assert.Contains(t, user.Text(), "<b>hi</b>")

	ai := msgs.Eq(1)
	assert.Equal(t, "Cleanse", ai.Find("ol li strong").Text())
	assert.Zero(t, ai.Find("script").Length())

	assert.Equal(t, chat.ThinkingText, msgs.Eq(2).Find("em").Text())
	assert.True(t, msgs.Eq(3).HasClass("error"))
	assert.Contains(t, msgs.Eq(4).Text(), chat.SelectSomethingTip)
}

func TestPage(t *testing.T) {
	r := newRenderer(t)
	criteria := filter.Criteria{Category: "cleanser"}
	view := PageView{
		Title:      "Routine Advisor",
		Categories: []string{"cleanser", "skincare"},
		Criteria:   criteria,
		Grid:       BuildGrid(products, nil, criteria),
		Summary:    SummaryView{},
		Chat:       r.BuildChat(nil),
	}

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, view))
	doc := testutil.ParseHTML(t, buf.Bytes())

	assert.Equal(t, "Routine Advisor", doc.Find("title").Text())
	assert.Equal(t, "cleanser", doc.Find("#categoryFilter option[selected]").AttrOr("value", ""))
	assert.Equal(t, 4, doc.Find("#categoryFilter option").Length())
	assert.Equal(t, "Cleanser", strings.TrimSpace(doc.Find(`#categoryFilter option[value="cleanser"]`).Text()))
	assert.Equal(t, 2, doc.Find(".product-card").Length())
	assert.Equal(t, "/routine", doc.Find("#generateRoutine").AttrOr("hx-post", ""))
	assert.Equal(t, "message", doc.Find("#userInput").AttrOr("name", ""))
	assert.Equal(t, 1, doc.Find("#chatWindow").Length())
}

func TestPagePendingIndicators(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageView{Title: "Routine Advisor", Chat: r.BuildChat(nil)}))
	doc := testutil.ParseHTML(t, buf.Bytes())

	tests := []struct {
		trigger string
		want    string
	}{
		{trigger: "#chatForm", want: chat.ThinkingText},
		{trigger: "#generateRoutine", want: chat.GeneratingText},
	}
	for _, tt := range tests {
		t.Run(tt.trigger, func(t *testing.T) {
			target := doc.Find(tt.trigger).AttrOr("hx-indicator", "")
			require.NotEmpty(t, target)
			indicator := doc.Find(target)
			require.Equal(t, 1, indicator.Length())
			assert.True(t, indicator.HasClass("htmx-indicator"))
			assert.Equal(t, tt.want, indicator.Text())
			assert.Zero(t, indicator.ParentsFiltered("#chatWindow").Length(), "indicator must survive chat window swaps")
		})
	}

	form := doc.Find("#chatForm")
	assert.Equal(t, chat.UserLabel, form.AttrOr("data-user-label", ""))
	assert.Contains(t, form.AttrOr("hx-on::before-request", ""), "echoUserMessage")
}

func TestDetailID(t *testing.T) {
	assert.Equal(t, "detail-42", DetailID("42"))
	assert.Equal(t, "detail-a_b", DetailID("a b"))
}

func TestStatic(t *testing.T) {
	data, err := fs.ReadFile(Static(), "style.css")
	require.NoError(t, err)
	assert.Contains(t, string(data), ".product-card.selected")
}
