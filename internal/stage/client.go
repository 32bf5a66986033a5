package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// errorEnvelope is the error body returned by all three stage services.
type errorEnvelope struct {
	Error string `json:"error"`
}

// caller is the JSON-over-HTTP transport shared by the stage clients. Each
// stage call is a single POST with a bounded timeout; stage services are
// stateless, so any replica behind the base URL may answer.
type caller struct {
	baseURL string
	client  *http.Client
}

func newCaller(baseURL string, timeout time.Duration) *caller {
	return &caller{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// post sends req as JSON to baseURL+path and decodes the response into resp.
func (c *caller) post(ctx context.Context, path string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var envelope errorEnvelope
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == "" {
			return fmt.Errorf("%s returned status %d", path, httpResp.StatusCode)
		}
		return fmt.Errorf("%s returned status %d: %s", path, httpResp.StatusCode, envelope.Error)
	}

	if resp != nil {
		if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}
