package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routine-advisor/advisor/internal/models"
)

var products = []models.Product{
	{ID: "1", Name: "Foaming Cleanser", Brand: "CeraVe", Category: "cleanser", Description: "Removes oil"},
	{ID: "2", Name: "Revitalift Serum", Brand: "L'Oreal Paris", Category: "moisturizer", Description: "Pure retinol night serum"},
	{ID: "3", Name: "Micellar Water", Brand: "Garnier", Category: "cleanser", Description: "No-rinse makeup remover"},
	{ID: "4", Name: "Hair Mask", Brand: "Kerastase", Category: "haircare", Description: "Deep conditioning"},
}

func ids(ps []models.Product) []models.ProductID {
	out := make([]models.ProductID, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []models.ProductID
	}{
		{name: "all with empty search returns full catalog in order", criteria: Criteria{Category: "all"}, want: []models.ProductID{"1", "2", "3", "4"}},
		{name: "no category behaves like all", criteria: Criteria{}, want: []models.ProductID{"1", "2", "3", "4"}},
		{name: "category exact match", criteria: Criteria{Category: "cleanser"}, want: []models.ProductID{"1", "3"}},
		{name: "category is case-sensitive", criteria: Criteria{Category: "Cleanser"}, want: []models.ProductID{}},
		{name: "search is case-insensitive on description", criteria: Criteria{Category: "all", Search: "RETINOL"}, want: []models.ProductID{"2"}},
		{name: "search matches brand", criteria: Criteria{Search: "garnier"}, want: []models.ProductID{"3"}},
		{name: "search matches name", criteria: Criteria{Search: "mask"}, want: []models.ProductID{"4"}},
		{name: "search is trimmed", criteria: Criteria{Search: "  cerave  "}, want: []models.ProductID{"1"}},
		{name: "category and search combine", criteria: Criteria{Category: "cleanser", Search: "makeup"}, want: []models.ProductID{"3"}},
		{name: "nothing matches", criteria: Criteria{Category: "all", Search: "perfume"}, want: []models.ProductID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(products, tt.criteria)))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	before := append([]models.Product(nil), products...)
	_ = Apply(products, Criteria{Category: "cleanser", Search: "water"})
	assert.Equal(t, before, products)
}

func TestCriteriaQueryRoundTrip(t *testing.T) {
	c := FromQuery(url.Values{"category": {" moisturizer "}, "q": {"serum"}})
	assert.Equal(t, Criteria{Category: "moisturizer", Search: "serum"}, c)
	assert.True(t, c.Active())
	assert.Equal(t, "category=moisturizer&q=serum", c.Query().Encode())
	assert.True(t, Criteria{Search: "x"}.Active())
	assert.False(t, Criteria{Search: "  "}.Active())
	assert.False(t, Criteria{}.Active())
}
