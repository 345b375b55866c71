package actions

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"

	"github.com/arjunsk/max/internal/dispatch"
)

// Search answers search_web via DuckDuckGo.
type Search struct {
	client *duckduckgo.Tool
}

func NewSearch() (*Search, error) {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &Search{client: ddg}, nil
}

func (s *Search) Execute(ctx context.Context, params map[string]any) dispatch.Result {
	query, _ := params["query"].(string)
	if query == "" {
		return dispatch.Result{Message: "query parameter is required"}
	}

	res, err := s.client.Call(ctx, query)
	if err != nil {
		return dispatch.Result{Message: fmt.Sprintf("search failed: %v", err)}
	}
	return dispatch.Result{
		Success: true,
		Message: fmt.Sprintf("Search results for %q", query),
		Data:    map[string]any{"results": res},
	}
}
