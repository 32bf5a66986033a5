package stage

import (
	"context"
	"fmt"
	"time"
)

// Document is the conversion result, a binary e-reader document.
type Document struct {
	File []byte `json:"file"`
}

type convertRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ConversionClient calls the HTML-to-document conversion service.
type ConversionClient struct {
	caller *caller
}

// NewConversionClient creates a client for the conversion service at baseURL.
func NewConversionClient(baseURL string, timeout time.Duration) *ConversionClient {
	return &ConversionClient{caller: newCaller(baseURL, timeout)}
}

// Convert turns article markup into an e-reader document.
func (c *ConversionClient) Convert(ctx context.Context, title, content string) (*Document, error) {
	var doc Document
	if err := c.caller.post(ctx, "/convert", &convertRequest{Title: title, Content: content}, &doc); err != nil {
		return nil, err
	}
	if len(doc.File) == 0 {
		return nil, fmt.Errorf("converter produced no output")
	}
	return &doc, nil
}
