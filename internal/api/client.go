package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"breadshare-client/internal/observability"
)

// TokenSource supplies the bearer token for outbound calls, empty when no
// session exists.
type TokenSource func(ctx context.Context) string

// Client is the typed HTTP client for the BreadShare backend. Responses
// arrive as {"data": ...} envelopes; failures are normalized to *Error.
// Nothing at this layer retries.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	tracer  trace.Tracer
}

// NewClient builds a Client. token may be nil for unauthenticated use.
func NewClient(baseURL string, timeout time.Duration, token TokenSource) *Client {
	if token == nil {
		token = func(context.Context) string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
		tracer:  otel.Tracer("breadshare-client/api"),
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, query, reader, "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path)
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.IncBackendRequest(method, path, "network_error")
		span.RecordError(err)
		apiErr := &Error{Kind: KindNetwork, Message: "no response from backend", cause: err}
		log.Printf("api: %s %s: %v", method, path, err)
		return apiErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.IncBackendRequest(method, path, "network_error")
		return &Error{Kind: KindNetwork, Message: "truncated response", cause: err}
	}

	if resp.StatusCode >= 400 {
		observability.IncBackendRequest(method, path, "error")
		apiErr := normalizeError(resp.StatusCode, raw)
		log.Printf("api: %s %s: status=%d kind=%s msg=%q", method, path, resp.StatusCode, apiErr.Kind, apiErr.Message)
		return apiErr
	}

	observability.IncBackendRequest(method, path, "ok")
	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response", cause: err}
	}
	payload := env.Data
	if payload == nil {
		// Some endpoints answer without the envelope.
		payload = raw
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response payload", cause: err}
	}
	return nil
}

func normalizeError(status int, raw []byte) *Error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	var env envelope
	_ = json.Unmarshal(raw, &env)

	apiErr := &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: body.Message,
		Field:   body.Field,
		Fields:  body.Errors,
		Data:    env.Data,
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// uploadMultipart sends a single file under the given form field.
func (c *Client) uploadMultipart(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, &buf, writer.FormDataContentType(), out)
}
