package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/philjnicholls/sendtokindle/internal/api/domain"
)

// HTTPPageChecker fetches a submitted URL once, following redirects, to
// fail fast before a job is committed to the queue. It does not retain the
// body; the extraction stage does its own fetch later.
type HTTPPageChecker struct {
	client *http.Client
}

// NewHTTPPageChecker creates a PageChecker with the given request timeout.
func NewHTTPPageChecker(timeout time.Duration) *HTTPPageChecker {
	return &HTTPPageChecker{
		client: &http.Client{Timeout: timeout},
	}
}

// Check performs a GET against the URL and maps the outcome onto the
// submission error taxonomy.
func (c *HTTPPageChecker) Check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPageUnreachable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPageUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return fmt.Errorf("%w: status %d", domain.ErrPageNotFound, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", domain.ErrPageUnreachable, resp.StatusCode)
	}

	return nil
}
