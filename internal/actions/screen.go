package actions

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/arjunsk/max/internal/dispatch"
)

const maxPageContent = 50000

// Screen answers read_screen and summarize_screen from the content of
// the live browser page: the DOM is run through readability and the
// result sanitized down to plain text.
type Screen struct {
	browser *Browser
}

func NewScreen(browser *Browser) *Screen {
	return &Screen{browser: browser}
}

func (s *Screen) extract(ctx context.Context) (readability.Article, error) {
	if !s.browser.Active() {
		return readability.Article{}, fmt.Errorf("no browser page is open to read")
	}

	html, pageURL, err := s.browser.PageHTML(ctx)
	if err != nil {
		return readability.Article{}, err
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{Scheme: "https", Host: "localhost"}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return readability.Article{}, fmt.Errorf("failed to extract page content: %w", err)
	}
	return article, nil
}

func (s *Screen) Read(ctx context.Context, params map[string]any) dispatch.Result {
	article, err := s.extract(ctx)
	if err != nil {
		return dispatch.Result{Message: err.Error()}
	}

	content := bluemonday.StrictPolicy().Sanitize(article.TextContent)
	if len(content) > maxPageContent {
		content = content[:maxPageContent] + "\n... (content truncated) ..."
	}

	return dispatch.Result{
		Success: true,
		Message: fmt.Sprintf("Read page: %s", article.Title),
		Data:    map[string]any{"title": article.Title, "content": content},
	}
}

func (s *Screen) Summarize(ctx context.Context, params map[string]any) dispatch.Result {
	article, err := s.extract(ctx)
	if err != nil {
		return dispatch.Result{Message: err.Error()}
	}

	summary := article.Excerpt
	if summary == "" {
		text := bluemonday.StrictPolicy().Sanitize(article.TextContent)
		if len(text) > 400 {
			text = text[:400] + "..."
		}
		summary = text
	}

	return dispatch.Result{
		Success: true,
		Message: summary,
		Data:    map[string]any{"title": article.Title},
	}
}
