package recipestore

import (
	"context"
	"fmt"
	"os"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/plateful/platefinder/internal/embeddings"
)

const collectionName = "recipes"

// ingredient/direction lists are flattened into metadata with this separator.
const listSep = "␞"

// ChromemStore implements Store on an in-process chromem-go database.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates an empty in-memory recipe index backed by the
// given embedder.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &ChromemStore{db: db, collection: col, embedFunc: ef}, nil
}

func (s *ChromemStore) Add(ctx context.Context, recipes []Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(recipes))
	for i, r := range recipes {
		docs[i] = chromem.Document{
			ID:      r.ID,
			Content: r.Title + "\n" + strings.Join(r.Ingredients, ", "),
			Metadata: map[string]string{
				"title":       r.Title,
				"ingredients": strings.Join(r.Ingredients, listSep),
				"directions":  strings.Join(r.Directions, listSep),
			},
		}
	}
	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Recipe: Recipe{
				ID:          r.ID,
				Title:       r.Metadata["title"],
				Ingredients: splitList(r.Metadata["ingredients"]),
				Directions:  splitList(r.Metadata["directions"]),
			},
			Similarity: r.Similarity,
		}
	}
	return matches, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	return s.db.ExportToFile(dir+"/recipes.gob.gz", true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(dir+"/recipes.gob.gz", ""); err != nil {
		return fmt.Errorf("importing recipe index: %w", err)
	}

	// The import replaces collections, so re-acquire the handle.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int { return s.collection.Count() }

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, listSep)
}
