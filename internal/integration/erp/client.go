// Package erp pushes generated purchase orders to the external
// ERP automation endpoint. The push is advisory: the order of record
// lives in this system and callers convert failures into warnings.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUpstream marks any transport or non-2xx failure from the endpoint.
var ErrUpstream = errors.New("erp: upstream failure")

// Entry is one order line in the push payload, one per source
// purchase request line.
type Entry struct {
	RequestID     string  `json:"request_id"`
	Buyer         string  `json:"buyer"`
	SupplierCode  string  `json:"supplier_code"`
	SupplierEmail string  `json:"supplier_email"`
	SupplierPhone string  `json:"supplier_phone"`
	ArticleCode   string  `json:"article_code"`
	Amount        float64 `json:"amount"`
	Brand         string  `json:"brand"`
	Project       string  `json:"project"`
}

// Payload is the full push body for one order.
type Payload struct {
	Entries    []Entry `json:"entries"`
	BuyerEmail string  `json:"buyer_email"`
	Headless   bool    `json:"headless"`
}

// Client posts order payloads with a bounded timeout.
type Client struct {
	endpoint string
	headless bool
	http     *http.Client
}

// NewClient constructs a Client.
func NewClient(endpoint string, timeout time.Duration, headless bool) *Client {
	return &Client{
		endpoint: endpoint,
		headless: headless,
		http:     &http.Client{Timeout: timeout},
	}
}

// Push sends one order to the endpoint. Any transport error or non-2xx
// status wraps ErrUpstream.
func (c *Client) Push(ctx context.Context, payload Payload) error {
	payload.Headless = c.headless
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erp: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("erp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}
