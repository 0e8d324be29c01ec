// Package recipestore holds the local recipe corpus and answers
// nearest-neighbour queries over it.
package recipestore

import (
	"context"
	"strconv"
	"strings"
)

// Recipe is one corpus entry.
type Recipe struct {
	ID          string
	Title       string
	Ingredients []string
	Directions  []string
}

// Body renders the recipe into the text form the pipeline judges and
// validates against.
func (r Recipe) Body() string {
	var b strings.Builder
	b.WriteString("TITLE: ")
	b.WriteString(r.Title)
	b.WriteString("\n\nINGREDIENTS:\n")
	for _, ing := range r.Ingredients {
		b.WriteString(" - ")
		b.WriteString(ing)
		b.WriteString("\n")
	}
	b.WriteString("\nDIRECTIONS:\n")
	for i, step := range r.Directions {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(strings.TrimSpace(step))
		b.WriteString("\n")
	}
	return b.String()
}

// Match pairs a recipe with its similarity to a query.
type Match struct {
	Recipe     Recipe
	Similarity float32
}

// Store is the vector index service the retriever depends on.
type Store interface {
	// Add inserts or replaces recipes in the index.
	Add(ctx context.Context, recipes []Recipe) error

	// Search returns up to limit recipes ranked by similarity to query.
	Search(ctx context.Context, query string, limit int) ([]Match, error)

	// Persist writes the index to dir; Load restores it.
	Persist(ctx context.Context, dir string) error
	Load(ctx context.Context, dir string) error

	// Count reports the number of indexed recipes.
	Count() int
}
