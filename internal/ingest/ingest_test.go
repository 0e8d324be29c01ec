package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/plateful/platefinder/internal/recipestore"
)

type captureStore struct {
	recipes []recipestore.Recipe
	adds    int
}

func (s *captureStore) Add(_ context.Context, recipes []recipestore.Recipe) error {
	s.adds++
	s.recipes = append(s.recipes, recipes...)
	return nil
}

func (s *captureStore) Search(context.Context, string, int) ([]recipestore.Match, error) {
	return nil, nil
}
func (s *captureStore) Persist(context.Context, string) error { return nil }
func (s *captureStore) Load(context.Context, string) error    { return nil }
func (s *captureStore) Count() int                            { return len(s.recipes) }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunIndexesJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "recipes/soups/minestrone.json",
		`{"title": "Minestrone", "ingredients": ["beans", "pasta"], "directions": ["simmer"]}`)
	writeFile(t, dir, "recipes/list.json",
		`[{"title": "Pesto Pasta", "ingredients": ["basil", "pasta"], "directions": ["blend", "toss"]},
		  {"title": "Minestrone", "ingredients": ["beans"], "directions": ["simmer"]}]`)
	writeFile(t, dir, "recipes/cakes/carrot.yml",
		"title: Carrot Cake\ningredients:\n  - carrots\n  - flour\ndirections:\n  - bake\n")

	store := &captureStore{}
	var lastDone, lastTotal int
	summary, err := New(store).Run(context.Background(), dir,
		[]string{"recipes/**/*.json", "recipes/**/*.yml"},
		func(done, total int) { lastDone, lastTotal = done, total })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Files != 3 {
		t.Fatalf("discovered %d files, want 3", summary.Files)
	}
	// The duplicate Minestrone collapses.
	if summary.Recipes != 3 {
		t.Fatalf("indexed %d recipes, want 3", summary.Recipes)
	}
	if store.Count() != 3 {
		t.Fatalf("store holds %d recipes, want 3", store.Count())
	}
	if lastDone != 3 || lastTotal != 3 {
		t.Fatalf("progress ended at %d/%d, want 3/3", lastDone, lastTotal)
	}

	ids := make(map[string]bool)
	for _, r := range store.recipes {
		if r.ID == "" {
			t.Fatalf("recipe %q has no id", r.Title)
		}
		ids[r.ID] = true
	}
	if len(ids) != 3 {
		t.Fatalf("ids are not distinct: %v", ids)
	}
}

func TestRunSkipsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "recipes/bad.json",
		`[{"title": "", "ingredients": ["x"]},
		  {"title": "No Ingredients", "ingredients": []},
		  {"title": "Fine", "ingredients": ["salt"], "directions": ["season"]}]`)

	store := &captureStore{}
	summary, err := New(store).Run(context.Background(), dir, []string{"recipes/*.json"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 2 {
		t.Fatalf("skipped %d entries, want 2", summary.Skipped)
	}
	if summary.Recipes != 1 {
		t.Fatalf("indexed %d recipes, want 1", summary.Recipes)
	}
}

func TestRunStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"title": "Carbonara", "ingredients": ["eggs"], "directions": ["toss"]}`)

	first := &captureStore{}
	if _, err := New(first).Run(context.Background(), dir, []string{"*.json"}, nil); err != nil {
		t.Fatal(err)
	}
	second := &captureStore{}
	if _, err := New(second).Run(context.Background(), dir, []string{"*.json"}, nil); err != nil {
		t.Fatal(err)
	}
	if first.recipes[0].ID != second.recipes[0].ID {
		t.Fatalf("ids differ across runs: %s vs %s", first.recipes[0].ID, second.recipes[0].ID)
	}
}

func TestRunBadPattern(t *testing.T) {
	if _, err := New(&captureStore{}).Run(context.Background(), t.TempDir(), []string{"[bad"}, nil); err == nil {
		t.Fatal("expected an error for a malformed pattern")
	}
}
