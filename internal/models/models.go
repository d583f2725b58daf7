package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ProductID identifies a catalog product. Catalogs and stored selections may
// carry ids as JSON strings or numbers; both decode to the same ProductID.
type ProductID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string { return string(id) }

// Product represents a catalog entry. Products are immutable once loaded.
type Product struct {
	ID          ProductID `json:"id" yaml:"id" parquet:"id"`
	Name        string    `json:"name" yaml:"name" parquet:"name"`
	Brand       string    `json:"brand" yaml:"brand" parquet:"brand"`
	Category    string    `json:"category" yaml:"category" parquet:"category"`
	Description string    `json:"description" yaml:"description" parquet:"description"`
	Image       string    `json:"image" yaml:"image" parquet:"image"`
}

// Catalog is the ordered list of products for a session
type Catalog struct {
	Products []Product `json:"products" yaml:"products"`
	index    map[ProductID]int
}

// NewCatalog builds a catalog preserving product order. Later duplicates of an
// id are dropped.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		Products: make([]Product, 0, len(products)),
		index:    make(map[ProductID]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, dup := c.index[p.ID]; dup {
			continue
		}
		c.index[p.ID] = len(c.Products)
		c.Products = append(c.Products, p)
	}
	return c
}

// Lookup returns the product with the given id.
func (c *Catalog) Lookup(id ProductID) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.Products[i], true
}

// Len returns the number of products
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Products)
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.Products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Role is the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is a single conversation turn exchanged with the assistant
type ChatMessage struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}
