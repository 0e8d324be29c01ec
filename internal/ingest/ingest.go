// Package ingest loads recipe files from disk into the vector index.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/recipestore"
)

// batchSize bounds how many recipes go to the index per Add call, which in
// turn bounds the embedding batch.
const batchSize = 50

// ProgressFunc receives ingestion progress after each indexed batch.
type ProgressFunc func(done, total int)

// Ingester scans recipe files and feeds them to the index.
type Ingester struct {
	store recipestore.Store
}

// New creates an Ingester over the given index.
func New(store recipestore.Store) *Ingester {
	return &Ingester{store: store}
}

// Summary reports what one ingestion run did.
type Summary struct {
	Files   int
	Recipes int
	Skipped int // entries missing a title or any ingredients
}

// Run discovers recipe files under root matching the patterns, parses them
// and indexes every valid entry. Duplicate titles across files collapse to
// one entry. progress may be nil.
func (ing *Ingester) Run(ctx context.Context, root string, patterns []string, progress ProgressFunc) (*Summary, error) {
	files, err := discover(root, patterns)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(files)}
	seen := make(map[string]bool)
	var recipes []recipestore.Recipe
	for _, path := range files {
		entries, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, e := range entries {
			key := recipe.NormalizeTitle(e.Title)
			if key == "" || len(e.Ingredients) == 0 {
				summary.Skipped++
				continue
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			recipes = append(recipes, recipestore.Recipe{
				ID:          recipeID(key),
				Title:       e.Title,
				Ingredients: e.Ingredients,
				Directions:  e.Directions,
			})
		}
	}
	summary.Recipes = len(recipes)

	for start := 0; start < len(recipes); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batchSize
		if end > len(recipes) {
			end = len(recipes)
		}
		if err := ing.store.Add(ctx, recipes[start:end]); err != nil {
			return nil, fmt.Errorf("indexing batch at %d: %w", start, err)
		}
		if progress != nil {
			progress(end, len(recipes))
		}
	}
	return summary, nil
}

// discover expands the glob patterns relative to root into a sorted,
// deduplicated file list.
func discover(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// recipeID derives a stable index id from the normalized title, so
// re-ingesting replaces instead of duplicating.
func recipeID(normalizedTitle string) string {
	sum := sha256.Sum256([]byte(normalizedTitle))
	return "r-" + hex.EncodeToString(sum[:])[:12]
}
