// Package websearch is the fallback source: when the local corpus yields
// nothing the judge accepts, it queries the web and normalizes results into
// the same candidate shape the retriever produces.
package websearch

import "context"

// Result is one raw hit from the web search provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Service is the web search provider contract.
type Service interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
