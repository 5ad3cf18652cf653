// httpclient/executor.go
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-noclist-client/clientstate"
	"github.com/deploymenttheory/go-noclist-client/headers"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/response"
	"github.com/deploymenttheory/go-noclist-client/status"
	"github.com/deploymenttheory/go-noclist-client/version"
	"go.uber.org/zap"
)

// ErrNotReady wraps the *response.APIError of a response rejected by OnReady.
var ErrNotReady = errors.New("response not ready")

// Request describes one HTTP call. An empty Method means GET.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Token, when set, signs the request path in the checksum header.
	Token string
}

// Hooks observe the outcome of a call made by Execute. Every hook is optional.
type Hooks[T any] struct {
	// OnReady decides whether the response may proceed to ParseBody.
	// Default: status 200 only.
	OnReady func(resp *http.Response) bool
	// ParseBody extracts the payload. Default: the body as text, which requires T to be string.
	ParseBody func(resp *http.Response) (T, error)
	// OnSuccess receives the parsed payload.
	OnSuccess func(body T)
	// OnError receives the network failure, the parse error or the not-ready
	// rejection. Default: write to the remote error log and raise the remote flag.
	OnError func(err error)
	// OnSettle runs once after OnSuccess or OnError.
	OnSettle func()
}

// Execute performs req and reports the result through hooks: exactly one of
// OnSuccess or OnError, followed by OnSettle. It never retries.
func Execute[T any](ctx context.Context, c *Client, flags *clientstate.ErrorFlags, req Request, hooks Hooks[T]) {
	h := withDefaults(c, flags, req, hooks)
	defer h.OnSettle()

	body, err := do(ctx, c, req, h)
	if err != nil {
		c.Concurrency.RecordError()
		h.OnError(err)
		return
	}
	h.OnSuccess(body)
}

func do[T any](ctx context.Context, c *Client, req Request, h Hooks[T]) (T, error) {
	var zero T

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, requestID, err := c.Concurrency.AcquireConcurrencyPermit(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquiring request permit: %w", err)
	}
	defer c.Concurrency.ReleaseConcurrencyPermit(requestID)

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return zero, err
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	headerHandler := headers.NewHeaderHandler(httpReq, c.Logger)
	headerHandler.SetUserAgent(version.GetUserAgentHeader())
	if req.Token != "" {
		headerHandler.SetChecksum(req.Token)
	}
	headerHandler.LogHeaders(c.config.HideSensitiveData)

	log := c.Logger
	log.LogRequestStart(requestID.String(), method, req.URL, headers.RedactHeaders(c.config.HideSensitiveData, httpReq.Header))

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.LogError("request_failed", method, req.URL, 0, err)
		return zero, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	log.LogRequestEnd(requestID.String(), method, req.URL, resp.StatusCode, time.Since(start))

	if !h.OnReady(resp) {
		apiErr := response.HandleAPIErrorResponse(resp, log)
		log.LogError("response_not_ready", method, req.URL, resp.StatusCode, apiErr)
		return zero, fmt.Errorf("%w: %w", ErrNotReady, apiErr)
	}

	body, err := h.ParseBody(resp)
	if err != nil {
		log.LogError("parse_failed", method, req.URL, resp.StatusCode, err)
		return zero, fmt.Errorf("parsing response body: %w", err)
	}
	return body, nil
}

func withDefaults[T any](c *Client, flags *clientstate.ErrorFlags, req Request, hooks Hooks[T]) Hooks[T] {
	if hooks.OnReady == nil {
		hooks.OnReady = func(resp *http.Response) bool {
			return status.IsSuccess(resp.StatusCode)
		}
	}
	if hooks.ParseBody == nil {
		hooks.ParseBody = parseText[T]
	}
	if hooks.OnSuccess == nil {
		hooks.OnSuccess = func(T) {}
	}
	if hooks.OnError == nil {
		hooks.OnError = func(err error) {
			c.ErrorLog.Log(err, logger.LayerRemote, zap.String("method", req.Method), zap.String("url", req.URL))
			flags.SetRemote()
		}
	}
	if hooks.OnSettle == nil {
		hooks.OnSettle = func() {}
	}
	return hooks
}

// parseText reads the body as text. It only applies when T is string.
func parseText[T any](resp *http.Response) (T, error) {
	var zero T
	text, err := response.ReadText(resp)
	if err != nil {
		return zero, err
	}
	body, ok := any(text).(T)
	if !ok {
		return zero, fmt.Errorf("no default body parser for %T", zero)
	}
	return body, nil
}
