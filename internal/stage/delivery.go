package stage

import (
	"context"
	"time"
)

// Address is an email address with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Attachment is a named binary file attached to an outgoing message.
type Attachment struct {
	Name string `json:"name"`
	File []byte `json:"file"`
}

// Message is an outgoing email handed to the delivery service.
type Message struct {
	Sender      Address      `json:"sender"`
	To          []Address    `json:"to"`
	Subject     string       `json:"subject"`
	BodyText    string       `json:"body_text,omitempty"`
	BodyHTML    string       `json:"body_html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type sendResponse struct {
	Result string `json:"result"`
}

// DeliveryClient calls the outbound email delivery service.
type DeliveryClient struct {
	caller *caller
}

// NewDeliveryClient creates a client for the delivery service at baseURL.
func NewDeliveryClient(baseURL string, timeout time.Duration) *DeliveryClient {
	return &DeliveryClient{caller: newCaller(baseURL, timeout)}
}

// Send delivers a message through the outbound mail relay.
func (c *DeliveryClient) Send(ctx context.Context, msg *Message) (string, error) {
	var resp sendResponse
	if err := c.caller.post(ctx, "/send", msg, &resp); err != nil {
		return "", err
	}
	return resp.Result, nil
}
