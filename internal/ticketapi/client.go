package ticketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
)

// APIError is a structured failure from the remote ticket API. Code is the
// discriminator the collaborator is contractually required to supply; the
// checkout classifier keys off it, never off Message.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ticket api error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Client talks to the remote ticket/event/payment API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *logger.Logger
}

func NewClient(cfg config.TicketAPIConfig, client *http.Client, log *logger.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  client,
		logger:  log,
	}
}

// SubmitPurchase posts the purchase request. A non-2xx reply with a decodable
// error envelope is returned as *APIError; anything else is a transport error.
func (c *Client) SubmitPurchase(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResponse, error) {
	var resp models.PurchaseResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/purchases", req, &resp, "submit_purchase")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchTransaction reads a payment transaction by its reference.
func (c *Client) FetchTransaction(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	path := fmt.Sprintf("/api/v1/transactions/%s", reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &tx, "fetch_transaction"); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTicketTypes reads the ticket types of an event, flash sales included.
func (c *Client) ListTicketTypes(ctx context.Context, eventID string) ([]models.TicketType, error) {
	var types []models.TicketType
	path := fmt.Sprintf("/api/v1/events/%s/ticket-types", eventID)
	if err := c.do(ctx, http.MethodGet, path, nil, &types, "list_ticket_types"); err != nil {
		return nil, err
	}
	return types, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, operation string) error {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reqBody = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveRemoteCall(operation, "transport_error", start)
		c.logger.Error("API", fmt.Sprintf("%s transport error: %v", operation, err))
		return fmt.Errorf("ticket api %s error: %w", operation, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("API", fmt.Sprintf("Failed to close %s response body: %v", operation, err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveRemoteCall(operation, fmt.Sprintf("%d", resp.StatusCode), start)
		return c.decodeError(resp, operation)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ObserveRemoteCall(operation, "decode_error", start)
		c.logger.Error("API", fmt.Sprintf("Failed to decode %s response: %v", operation, err))
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	metrics.ObserveRemoteCall(operation, "ok", start)
	return nil
}

func (c *Client) decodeError(resp *http.Response, operation string) error {
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ticket api %s returned status %d", operation, resp.StatusCode)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Error.Code == "" {
		// No discriminator in the reply; surface the status so the
		// classifier falls through to its general kind.
		c.logger.Warn("API", fmt.Sprintf("%s returned status %d without an error code", operation, resp.StatusCode))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("ticket api returned status %d", resp.StatusCode),
			Detail:     strings.TrimSpace(string(payload)),
		}
	}

	apiErr := envelope.Error
	apiErr.StatusCode = resp.StatusCode
	c.logger.Warn("API", fmt.Sprintf("%s failed: %s (%s)", operation, apiErr.Message, apiErr.Code))
	return &apiErr
}
