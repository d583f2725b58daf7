package chat

import (
	"fmt"
	"strings"

	"github.com/routine-advisor/advisor/internal/models"
)

// RoutinePrompt builds the user message asking for a routine from products
func RoutinePrompt(products []models.Product) string {
	var sb strings.Builder
	sb.WriteString("Here are my selected products:\n")
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s (%s, %s): %s\n", p.Name, p.Brand, p.Category, p.Description)
	}
	sb.WriteString("Please create a step-by-step routine using these products. Explain the order and give a friendly tip for each step.")
	return sb.String()
}
