// Package provider implements the gateway to upstream vendor APIs. Every
// call decrypts the stored credential transiently, issues one HTTP request
// with a bounded timeout and normalizes the response into a typed result, so
// callers never re-interpret vendor quirks like a logical error inside an
// HTTP 200 body.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smmpanel/internal/models"
	"smmpanel/internal/utils"
)

const defaultTimeout = 30 * time.Second

// Client is the HTTP implementation of Gateway.
type Client struct {
	http   *http.Client
	cipher *utils.Cipher
}

// NewClient builds a gateway client. The cipher decrypts stored provider API
// keys; the timeout bounds every upstream call.
func NewClient(cipher *utils.Cipher, timeout time.Duration) *Client {
	if cipher == nil {
		panic("cipher is required")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		cipher: cipher,
	}
}

type apiResponse struct {
	Order  interface{} `json:"order"`
	Status string      `json:"status"`
	Error  string      `json:"error"`
}

// SubmitOrder places an order upstream and returns the provider's order id.
func (c *Client) SubmitOrder(ctx context.Context, prov *models.Provider, req SubmitRequest) (string, error) {
	resp, err := c.call(ctx, "submit", prov, map[string]interface{}{
		"action":   "add",
		"service":  req.Service,
		"link":     req.Link,
		"quantity": req.Quantity,
	})
	if err != nil {
		return "", err
	}

	orderID := stringify(resp.Order)
	if orderID == "" {
		return "", &Error{Op: "submit", Message: "response missing order id", Retryable: false}
	}
	return orderID, nil
}

// GetStatus queries the upstream state of a previously submitted order.
func (c *Client) GetStatus(ctx context.Context, prov *models.Provider, providerOrderID string) (OrderStatus, error) {
	resp, err := c.call(ctx, "status", prov, map[string]interface{}{
		"action": "status",
		"order":  providerOrderID,
	})
	if err != nil {
		return StatusUnknown, err
	}
	if resp.Status == "" {
		return StatusUnknown, &Error{Op: "status", Message: "response missing status", Retryable: false}
	}
	return NormalizeStatus(resp.Status), nil
}

// CancelOrder requests upstream cancellation of a submitted order.
func (c *Client) CancelOrder(ctx context.Context, prov *models.Provider, providerOrderID string) error {
	_, err := c.call(ctx, "cancel", prov, map[string]interface{}{
		"action": "cancel",
		"order":  providerOrderID,
	})
	return err
}

// call performs one request against the provider API. The decrypted API key
// lives only in the request body; it is never logged and never stored.
func (c *Client) call(ctx context.Context, op string, prov *models.Provider, payload map[string]interface{}) (*apiResponse, error) {
	apiKey, err := c.cipher.Decrypt(prov.APIKeyCipher, prov.APIKeyNonce)
	if err != nil {
		return nil, &Error{Op: op, Message: "failed to decrypt provider credential", Retryable: false}
	}
	payload["key"] = apiKey

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("failed to encode request: %v", err), Retryable: false}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, prov.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("failed to build request: %v", err), Retryable: false}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		// Transport failure or timeout: the outcome upstream is unknown,
		// which callers must treat as failure, never as success.
		return nil, &Error{Op: op, Message: err.Error(), Retryable: true}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return nil, &Error{Op: op, StatusCode: httpResp.StatusCode, Message: "upstream server error", Retryable: true}
	}
	if httpResp.StatusCode >= 400 {
		return nil, &Error{Op: op, StatusCode: httpResp.StatusCode, Message: "upstream rejected request", Retryable: false}
	}

	dec := json.NewDecoder(httpResp.Body)
	dec.UseNumber()
	var resp apiResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, &Error{Op: op, StatusCode: httpResp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err), Retryable: false}
	}

	// Vendors report logical failures inside a 200 body; the transport
	// succeeding does not make the call a success.
	if resp.Error != "" {
		return nil, &Error{Op: op, StatusCode: httpResp.StatusCode, Message: resp.Error, Retryable: false}
	}
	return &resp, nil
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
