// Package filter derives the visible product subset from the category and
// free-text search controls.
package filter

import (
	"net/url"
	"strings"

	"github.com/routine-advisor/advisor/internal/models"
)

// AllCategories is the category sentinel that disables category filtering
const AllCategories = "all"

// Criteria holds the current category and search controls
type Criteria struct {
	Category string
	Search   string
}

// FromQuery reads criteria from the "category" and "q" query parameters
func FromQuery(q url.Values) Criteria {
	return Criteria{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   q.Get("q"),
	}
}

// Active reports whether the visitor has picked a category or typed a
// search. Until then the grid shows a placeholder instead of products.
func (c Criteria) Active() bool {
	return c.Category != "" || strings.TrimSpace(c.Search) != ""
}

// Query encodes the criteria as URL query parameters
func (c Criteria) Query() url.Values {
	q := url.Values{}
	if c.Category != "" {
		q.Set("category", c.Category)
	}
	if s := strings.TrimSpace(c.Search); s != "" {
		q.Set("q", s)
	}
	return q
}

// Apply returns the products matching the criteria in catalog order.
// The category match is exact and case-sensitive; the search text matches
// name, brand or description case-insensitively.
func Apply(products []models.Product, c Criteria) []models.Product {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	byCategory := c.Category != "" && c.Category != AllCategories

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if byCategory && p.Category != c.Category {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p models.Product, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Brand), search) ||
		strings.Contains(strings.ToLower(p.Description), search)
}
