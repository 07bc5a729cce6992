/*
Package report hands report work to the CIMS report service and renders
spreadsheet exports.

PURPOSE:
  Actual history reports are produced asynchronously by a separate report
  service. This package queues them over HTTP; the report service mails the
  result to the requesting agent. Policy listings and policy detail views
  are exported locally as XLSX workbooks.

KEY TYPES:
  Client:               Queues report requests (queue.go)
  ActualHistoryRequest: Wire body of the actual history queue endpoint
  WritePolicies:        Policy listing workbook (export.go)
  WritePolicyDetail:    Policy detail workbook (export.go)

WIRE FORMAT:
  POST <base>ActualHistoryReport/Queue
  Headers: ApiKey, X-Request-ID (uuid correlation id)
  Body:    JSON with the report service's field names (PascalCase)
*/
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no report service URL is set.
	ErrNotConfigured = errors.New("report service not configured")

	// ErrReportRejected is returned when the report service answers with a
	// non-2xx status.
	ErrReportRejected = errors.New("report service rejected request")
)

// ActualHistoryRequest asks for actual history reports of the listed
// producers for a reinsurance year.
type ActualHistoryRequest struct {
	Year            int    `json:"Year"`
	IDs             string `json:"Ids"`
	AllInOne        bool   `json:"AllInOne"`
	WsrCompleted    bool   `json:"WsrCompleted"`
	CurrentInterval bool   `json:"CurrentInterval"`
	NextInterval    bool   `json:"NextInterval"`
	AgentEmail      string `json:"AgentEmail"`
}

// Client queues report requests with the report service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a report client. baseURL may be empty, in which case
// every call fails with ErrNotConfigured.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// QueueActualHistory queues an actual history report and returns the
// correlation id sent with the request.
func (c *Client) QueueActualHistory(ctx context.Context, req ActualHistoryRequest) (string, error) {
	return c.post(ctx, "ActualHistoryReport/Queue", req)
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode report request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("ApiKey", c.apiKey)
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("queue report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("report service rejected request",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail))
		return "", fmt.Errorf("%w: status %d", ErrReportRejected, resp.StatusCode)
	}

	c.logger.Info("report queued", zap.String("path", path), zap.String("request_id", requestID))
	return requestID, nil
}
