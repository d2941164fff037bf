// Package httpcall implements the generic outbound HTTP request tool.
// Standard library only (net/http) — see DESIGN.md for why no pack
// dependency is a better fit for a domain-agnostic HTTP client.
package httpcall

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
)

// Handler issues one HTTP request. Args: {method, url, headers?, body?}.
type Handler struct {
	Client *http.Client
}

func New() Handler {
	return Handler{Client: &http.Client{}}
}

func (h Handler) Call(ctx context.Context, _ string, args map[string]any) (any, *envelope.ToolError) {
	method, _ := args["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	url, _ := args["url"].(string)
	if url == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_url", "http_call requires a url argument")
	}

	var body io.Reader
	if raw, ok := args["body"].(string); ok && raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, body)
	if err != nil {
		return nil, envelope.New(envelope.KindInvalidArgs, "invalid_request", err.Error())
	}
	if headers, ok := args["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, envelope.New(envelope.KindTimeout, "deadline_exceeded", "http request exceeded its deadline").WithRetryable(true)
		}
		return nil, envelope.New(envelope.KindUpstream, "request_failed", err.Error()).WithRetryable(true)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, envelope.New(envelope.KindUpstream, "read_body_failed", err.Error()).WithRetryable(true)
	}

	respHeaders := map[string]any{}
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        buf.String(),
		"duration_ms": duration.Milliseconds(),
	}, nil
}
