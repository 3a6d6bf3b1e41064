// Package dakapi is the HTTP client for the Dak backend REST API.
package dakapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/dak-console/config"
	"github.com/upb/dak-console/services"
)

const (
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// Client talks to the Dak backend on behalf of one signed-in user per call.
// The bearer token is passed explicitly on every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client from configuration
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// backendMessage is the error/ack body shape the backend uses.
type backendMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (m backendMessage) text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}

// newRequest builds a request against the backend with the bearer token attached.
func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, services.WrapInternal("failed to build backend request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send executes req and converts transport failures and non-2xx statuses into domain errors.
// On success the caller owns the response body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("dak backend request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "Dak backend unavailable", err)
	}

	c.logger.Debug("dak backend request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(resp)
}

// statusError maps a failed backend response onto the console's error taxonomy.
func statusError(resp *http.Response) error {
	var msg backendMessage
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &msg)
	text := msg.text()
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}

	var errType services.ErrorType
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		errType = services.ErrorTypeUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		errType = services.ErrorTypeForbidden
	case resp.StatusCode == http.StatusNotFound:
		errType = services.ErrorTypeNotFound
	case resp.StatusCode == http.StatusConflict:
		errType = services.ErrorTypeConflict
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		errType = services.ErrorTypeValidation
	default:
		errType = services.ErrorTypeExternal
	}
	return services.NewDomainError(errType, text, fmt.Errorf("backend status %d", resp.StatusCode)).
		WithDetail("status", resp.StatusCode)
}

// doJSON sends an optional JSON body and decodes a JSON response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return services.WrapInternal("failed to encode backend request", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, token, body, contentType)
	if err != nil {
		return err
	}
	return c.roundTrip(req, out)
}

// roundTrip sends req and decodes a JSON response into out when non-nil.
// An empty success body leaves out untouched.
func (c *Client) roundTrip(req *http.Request, out interface{}) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return services.WrapExternal("invalid response from Dak backend", err)
	}
	return nil
}

// doMessage performs a mutation and returns the backend's acknowledgement message.
func (c *Client) doMessage(ctx context.Context, method, path, token string, in interface{}) (string, error) {
	var msg backendMessage
	if err := c.doJSON(ctx, method, path, token, in, &msg); err != nil {
		return "", err
	}
	return msg.text(), nil
}

// UploadFile is one PDF forwarded to the backend upload endpoint.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// multipartBody encodes form fields and files the way the backend upload endpoint expects.
func multipartBody(fields [][2]string, files []UploadFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
