package stage

import (
	"context"
	"fmt"
	"time"
)

// Article is the extraction result: self-contained markup with embedded
// media, ready for document conversion.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Text    string `json:"text,omitempty"`
}

type scrapeRequest struct {
	URL   string `json:"url,omitempty"`
	HTML  string `json:"html,omitempty"`
	Title string `json:"title,omitempty"`
}

// ExtractionClient calls the article extraction service.
type ExtractionClient struct {
	caller *caller
}

// NewExtractionClient creates a client for the extraction service at baseURL.
func NewExtractionClient(baseURL string, timeout time.Duration) *ExtractionClient {
	return &ExtractionClient{caller: newCaller(baseURL, timeout)}
}

// Scrape extracts the main article content from a URL.
func (c *ExtractionClient) Scrape(ctx context.Context, url string) (*Article, error) {
	var article Article
	if err := c.caller.post(ctx, "/scrape", &scrapeRequest{URL: url}, &article); err != nil {
		return nil, err
	}
	if article.Content == "" {
		return nil, fmt.Errorf("no readable article content extracted")
	}
	return &article, nil
}

// ScrapeHTML extracts the main article content from pre-fetched HTML.
func (c *ExtractionClient) ScrapeHTML(ctx context.Context, html, title string) (*Article, error) {
	var article Article
	if err := c.caller.post(ctx, "/scrape", &scrapeRequest{HTML: html, Title: title}, &article); err != nil {
		return nil, err
	}
	if article.Content == "" {
		return nil, fmt.Errorf("no readable article content extracted")
	}
	return &article, nil
}
