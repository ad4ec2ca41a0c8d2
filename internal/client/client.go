// Package client talks to the remote data-quality analysis service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/report"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:8000"
	AnalyzePath    = "/api/v1/analysis/analyze"
	HealthPath     = "/health"

	// FormField is the multipart part name carrying the file.
	FormField = "file"

	maxErrorBody   = 8 << 10
	maxSuccessBody = 32 << 20
)

// Client submits files for analysis. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

// New returns a client for baseURL. A zero httpTimeout leaves the transport
// default (no client-side deadline).
func New(baseURL string, httpTimeout time.Duration) *Client {
	hc := &http.Client{}
	if httpTimeout > 0 {
		hc.Timeout = httpTimeout
	}
	return NewWithHTTPClient(baseURL, hc)
}

// NewWithHTTPClient allows injecting a custom http.Client (used in tests).
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        zap.NewNop(),
	}
}

// WithLogger attaches a logger for request diagnostics.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l != nil {
		c.log = l
	}
	return c
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Analyze uploads f and returns the parsed report. The file is streamed once
// and closed before Analyze returns.
func (c *Client) Analyze(ctx context.Context, f intake.FileHandle) (*report.DataProfileReport, error) {
	content, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer content.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeFilePart(mw, f, content))
	}()

	endpoint := c.baseURL + AnalyzePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = pr.Close()
		c.log.Debug("analyze request failed", zap.String("file", f.Name), zap.Error(err))
		return nil, &TransportError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()
	c.log.Debug("analyze response",
		zap.String("file", f.Name),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", extractRequestID(resp)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeServiceError(resp)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSuccessBody))
	if err != nil {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	rep, err := report.Decode(body)
	if err != nil {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	return rep, nil
}

// Health probes the service. Any failure is reported as a connectivity error.
func (c *Client) Health(ctx context.Context) (*report.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{BaseURL: c.baseURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	var hs report.HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&hs); err != nil {
		return nil, &TransportError{BaseURL: c.baseURL, Err: fmt.Errorf("decode health: %w", err)}
	}
	return &hs, nil
}

func writeFilePart(mw *multipart.Writer, f intake.FileHandle, content io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FormField, f.Name))
	ct := f.MediaType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return mw.Close()
}

// decodeServiceError reads {"detail": "..."}; anything else degrades to a
// status-only error.
func decodeServiceError(resp *http.Response) error {
	se := &ServiceError{StatusCode: resp.StatusCode, RequestID: extractRequestID(resp)}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		// Blank details count as absent; anything else is kept as sent.
		if d, ok := raw["detail"].(string); ok && strings.TrimSpace(d) != "" {
			se.Detail = d
		}
	}
	return se
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "X-Correlation-Id", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// IsTransport reports whether err means the service could not be reached.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
