// Package embeddings abstracts the embedding service behind an interface so
// the recipe store can swap vendors and tests can supply deterministic
// vectors.
package embeddings

import "context"

// Embedder turns texts into dense vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of the vectors this embedder produces.
	Dimensions() int

	// Name identifies the backing model.
	Name() string
}
