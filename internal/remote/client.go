package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// restPrefix is the path prefix for table endpoints.
	restPrefix = "/rest/v1/"

	// APITimeout bounds every remote call.
	APITimeout = 10 * time.Second
)

// Client implements Store against the hosted REST API.
//
// Wire conventions (PostgREST-style): tables are resources under
// /rest/v1/, filters are query parameters (column=op.value), upserts
// are POSTs with a merge-duplicates preference and an on_conflict
// column list naming the natural key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a REST client for the given endpoint.
//
// If httpClient is nil, a default client is used; per-call timeouts are
// applied regardless. If logger is nil, a stderr logger is used.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger,
	}
}

// Select implements Store.Select.
func (c *Client) Select(ctx context.Context, table string, q Query, dest interface{}) error {
	body, err := c.do(ctx, http.MethodGet, table, q.Encode(), nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

// Insert implements Store.Insert.
func (c *Client) Insert(ctx context.Context, table string, record interface{}) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	_, err := c.do(ctx, http.MethodPost, table, "", record, headers)
	return err
}

// Upsert implements Store.Upsert. The conflict columns name the
// entity's natural key; the server merges on collision instead of
// creating a duplicate row, which is what makes Push idempotent.
func (c *Client) Upsert(ctx context.Context, table string, record interface{}, conflict []string) error {
	params := "on_conflict=" + joinColumns(conflict)
	headers := map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	}
	_, err := c.do(ctx, http.MethodPost, table, params, record, headers)
	return err
}

// Update implements Store.Update.
func (c *Client) Update(ctx context.Context, table string, patch interface{}, q Query) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	_, err := c.do(ctx, http.MethodPatch, table, q.Encode(), patch, headers)
	return err
}

// Delete implements Store.Delete.
func (c *Client) Delete(ctx context.Context, table string, q Query) error {
	_, err := c.do(ctx, http.MethodDelete, table, q.Encode(), nil, nil)
	return err
}

// do performs one HTTP exchange and classifies failures: transport
// errors become ErrOffline, credential rejections ErrUnauthorized, and
// other non-2xx statuses APIError.
func (c *Client) do(ctx context.Context, method, table, params string, payload interface{}, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	endpoint := c.baseURL + restPrefix + table
	if params != "" {
		endpoint += "?" + params
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", table, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", table, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failure: no network path, DNS, timeout. This is
		// the cycle-level offline condition, not a record rejection.
		return nil, fmt.Errorf("%w: %v", ErrOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrOffline, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	default:
		return nil, &APIError{Status: resp.StatusCode, Message: apiMessage(body)}
	}
}

// apiMessage extracts the error message from a response body, falling
// back to the raw body when it isn't the usual JSON shape.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
