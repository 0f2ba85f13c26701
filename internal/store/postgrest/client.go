package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/pkg/random"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	defaultTable   = "attendance"

	// retryJitter is the ±percent spread applied to each retry delay
	retryJitter = 20.0
)

// Client is a RecordStore over a PostgREST-style REST interface
// (the hosted backend's /rest/v1/<table> endpoint)
type Client struct {
	baseURL      string
	table        string
	apiKey       string
	tokenManager *TokenManager
	httpClient   *http.Client
	logger       *zap.Logger
	retryDelay   time.Duration
}

var _ attendance.RecordStore = (*Client)(nil)

// NewClient creates a new REST record store client.
// apiKey is sent as the "apikey" header; the bearer comes from tokenManager.
func NewClient(baseURL, table, apiKey string, tokenManager *TokenManager, logger *zap.Logger) *Client {
	if table == "" {
		table = defaultTable
	}
	return &Client{
		baseURL:      baseURL,
		table:        table,
		apiKey:       apiKey,
		tokenManager: tokenManager,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:     logger,
		retryDelay: time.Second,
	}
}

// ListRange returns the owner's records with check-in between from and to
func (c *Client) ListRange(ctx context.Context, ownerID string, from, to time.Time, order attendance.SortOrder) ([]attendance.Record, error) {
	direction := "asc"
	if order == attendance.Descending {
		direction = "desc"
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+ownerID)
	q.Add("check_in", "gte."+from.Format(time.RFC3339))
	q.Add("check_in", "lte."+to.Format(time.RFC3339))
	q.Set("order", "check_in."+direction)

	var records []attendance.Record
	if err := c.doRequest(ctx, http.MethodGet, c.tablePath(q), nil, &records); err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	c.logger.Debug("Attendance records fetched",
		zap.String("owner", ownerID),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("count", len(records)))

	return records, nil
}

// Create inserts rec and returns the stored row
func (c *Client) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	var rows []attendance.Record
	if err := c.doRequest(ctx, http.MethodPost, c.tablePath(nil), toRow(rec), &rows); err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	if len(rows) == 0 {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: empty response")
	}

	c.logger.Info("Attendance record created",
		zap.String("id", rows[0].ID),
		zap.String("status", string(rows[0].Status)))

	return rows[0], nil
}

// Update patches the row with rec.ID owned by rec.OwnerID
func (c *Client) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		return attendance.Record{}, fmt.Errorf("update without id: %w", attendance.ErrRecordNotFound)
	}

	q := url.Values{}
	q.Set("id", "eq."+rec.ID)
	q.Set("user_id", "eq."+rec.OwnerID)

	var rows []attendance.Record
	if err := c.doRequest(ctx, http.MethodPatch, c.tablePath(q), toRow(rec), &rows); err != nil {
		return attendance.Record{}, fmt.Errorf("failed to update attendance record %s: %w", rec.ID, err)
	}
	if len(rows) == 0 {
		return attendance.Record{}, fmt.Errorf("record %s: %w", rec.ID, attendance.ErrRecordNotFound)
	}

	c.logger.Info("Attendance record updated",
		zap.String("id", rec.ID),
		zap.String("status", string(rows[0].Status)))

	return rows[0], nil
}

func (c *Client) tablePath(q url.Values) string {
	path := "/rest/v1/" + c.table
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path
}

// doRequest performs HTTP request with authentication, retrying
// transport failures and server errors
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = jsonData
	}

	endpoint := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		err := c.doRequestOnce(ctx, method, endpoint, payload, result)
		if err == nil {
			return nil
		}

		lastErr = err
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return err
		}

		c.logger.Warn("Request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", defaultRetries),
			zap.Error(err))

		if attempt < defaultRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(random.Jitter(c.retryDelay*time.Duration(attempt), retryJitter)):
			}
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", defaultRetries, lastErr)
}

// doRequestOnce performs a single HTTP request
func (c *Client) doRequestOnce(ctx context.Context, method, endpoint string, payload []byte, result interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokenManager.GetToken()
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
