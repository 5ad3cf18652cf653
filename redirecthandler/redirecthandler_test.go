package redirecthandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/deploymenttheory/go-noclist-client/concurrency"
	"github.com/deploymenttheory/go-noclist-client/headers"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRequest(t *testing.T, method, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &http.Request{Method: method, URL: u, Header: http.Header{}}
}

func TestSetupRedirectHandler_NoFollowReturnsRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer origin.Close()

	client := &http.Client{}
	require.NoError(t, SetupRedirectHandler(client, false, 0, logger.NewNopLogger()))

	resp, err := client.Get(origin.URL + "/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestSetupRedirectHandler_FollowStripsChecksumAcrossHosts(t *testing.T) {
	var seenChecksum string
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenChecksum = r.Header.Get(headers.ChecksumHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/users", http.StatusTemporaryRedirect)
	}))
	defer origin.Close()

	client := &http.Client{}
	require.NoError(t, SetupRedirectHandler(client, true, 5, logger.NewNopLogger()))

	req, err := http.NewRequest(http.MethodGet, origin.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set(headers.ChecksumHeader, "abc")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, seenChecksum)
}

func TestSetupRedirectHandler_InvalidMax(t *testing.T) {
	err := SetupRedirectHandler(&http.Client{}, true, 0, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestCheckRedirect_Loop(t *testing.T) {
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Error", "Redirect loop detected", mock.Anything).Return(nil).Once()
	handler := NewRedirectHandler(mockLog, 5)

	first := newRequest(t, http.MethodGet, "http://example.com/loop")
	next := newRequest(t, http.MethodGet, "http://example.com/loop")

	err := handler.checkRedirect(next, []*http.Request{first})

	assert.IsType(t, &RedirectLoopError{}, err)
	assert.Contains(t, err.Error(), "redirect loop detected")
	mockLog.AssertExpectations(t)
}

// TestMaxRedirectsReached checks that the handler stops redirects after reaching the maximum limit.
func TestMaxRedirectsReached(t *testing.T) {
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Warn", "Maximum redirects reached", mock.Anything).Once()
	handler := NewRedirectHandler(mockLog, 1)

	via := []*http.Request{newRequest(t, http.MethodGet, "http://example.com/start")}
	err := handler.checkRedirect(newRequest(t, http.MethodGet, "http://example.com/next"), via)

	require.IsType(t, &MaxRedirectsError{}, err)
	assert.Equal(t, 1, err.(*MaxRedirectsError).MaxRedirects)
	mockLog.AssertExpectations(t)
}

func TestCheckRedirect_NonIdempotent(t *testing.T) {
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Warn", mock.Anything, mock.Anything).Once()
	handler := NewRedirectHandler(mockLog, 5)

	via := []*http.Request{newRequest(t, http.MethodPost, "http://example.com/start")}
	err := handler.checkRedirect(newRequest(t, http.MethodGet, "http://example.com/next"), via)

	assert.Equal(t, http.ErrUseLastResponse, err)
}

func TestCheckRedirect_SeeOther(t *testing.T) {
	handler := NewRedirectHandler(nil, 5)
	req := newRequest(t, http.MethodPut, "http://example.com/new")
	req.Header.Set("Content-Type", "text/plain")
	req.Response = &http.Response{StatusCode: http.StatusSeeOther}

	err := handler.checkRedirect(req, []*http.Request{newRequest(t, http.MethodPut, "http://example.com/old")})

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

// TestRedirectHandler_SecureRequest verifies that sensitive headers are removed on a cross-host redirect.
func TestRedirectHandler_SecureRequest(t *testing.T) {
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Debug", mock.Anything, mock.Anything)
	handler := NewRedirectHandler(mockLog, 5)

	req := newRequest(t, http.MethodGet, "http://other.example.com/users")
	req.Header.Set(headers.ChecksumHeader, "abc")
	req.Header.Set("Cookie", "session")
	req.Header.Set("Accept", "text/plain")

	handler.secureRequest(req)

	assert.Empty(t, req.Header.Get(headers.ChecksumHeader))
	assert.Empty(t, req.Header.Get("Cookie"))
	assert.Equal(t, "text/plain", req.Header.Get("Accept"))
	assert.Contains(t, mockLog.Calls[0].Arguments.String(0), "Removed sensitive header")
}

func TestCheckRedirect_LogsRequestID(t *testing.T) {
	ch := concurrency.NewConcurrencyHandler(nil)
	ctx, requestID, err := ch.AcquireConcurrencyPermit(context.Background())
	require.NoError(t, err)
	defer ch.ReleaseConcurrencyPermit(requestID)

	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Info", "Redirecting request", mock.MatchedBy(func(fields []zap.Field) bool {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}
		return enc.Fields[logger.RequestIDKey] == requestID.String() && enc.Fields["permanent"] == true
	})).Once()
	handler := NewRedirectHandler(mockLog, 5)

	req := newRequest(t, http.MethodGet, "http://example.com/moved").WithContext(ctx)
	req.Response = &http.Response{StatusCode: http.StatusPermanentRedirect}

	require.NoError(t, handler.checkRedirect(req, []*http.Request{newRequest(t, http.MethodGet, "http://example.com/old")}))
	mockLog.AssertExpectations(t)
}
