// httpclient/executor_test.go
package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deploymenttheory/go-noclist-client/clientstate"
	"github.com/deploymenttheory/go-noclist-client/headers"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/response"
	"github.com/deploymenttheory/go-noclist-client/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *observer.ObservedLogs, string) {
	t.Helper()

	endpoint, err := ParseEndpoint(baseURL)
	require.NoError(t, err)

	config := ClientConfig{Endpoint: endpoint, Timeout: 2 * time.Second, HideSensitiveData: true}
	SetDefaultValuesClientConfig(&config)

	core, logs := observer.New(zapcore.DebugLevel)
	dir := t.TempDir()
	errLog, err := logger.NewErrorLog(dir, 1)
	require.NoError(t, err)

	client, err := NewClient(config, logger.NewLogger(zap.New(core), logger.LogLevelDebug), errLog)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, logs, dir
}

func TestExecuteSuccess(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL)
	flags := &clientstate.ErrorFlags{}

	var body string
	var calls []string
	Execute(context.Background(), client, flags, Request{URL: client.URL("/users")}, Hooks[string]{
		OnSuccess: func(b string) { body = b; calls = append(calls, "success") },
		OnError:   func(error) { calls = append(calls, "error") },
		OnSettle:  func() { calls = append(calls, "settle") },
	})

	assert.Equal(t, "hello", body)
	assert.Equal(t, []string{"success", "settle"}, calls)
	assert.Equal(t, version.GetUserAgentHeader(), userAgent)
	assert.Zero(t, flags.ExitStatus())
	assert.Equal(t, int64(1), client.Concurrency.Snapshot().TotalRequests)
}

func TestExecuteNotReadyDefaultOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad checksum", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, logs, dir := newTestClient(t, server.URL)
	flags := &clientstate.ErrorFlags{}

	settled := 0
	Execute(context.Background(), client, flags, Request{URL: client.URL("/users")}, Hooks[string]{
		OnSuccess: func(string) { t.Fatal("OnSuccess must not run") },
		OnSettle:  func() { settled++ },
	})

	assert.Equal(t, 1, settled)
	assert.True(t, flags.Remote)
	assert.Equal(t, clientstate.RemoteBit, flags.ExitStatus())
	assert.Equal(t, int64(1), client.Concurrency.Snapshot().TotalErrors)
	assert.NotZero(t, logs.FilterMessage("Error during HTTP request").Len())

	require.NoError(t, client.ErrorLog.Close())
	data, err := os.ReadFile(filepath.Join(dir, logger.RemoteErrorLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "bad checksum")
}

func TestExecuteNotReadyWrapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL)

	var got error
	Execute(context.Background(), client, &clientstate.ErrorFlags{}, Request{URL: client.URL("/users")}, Hooks[string]{
		OnError: func(err error) { got = err },
	})

	require.Error(t, got)
	assert.ErrorIs(t, got, ErrNotReady)
	var apiErr *response.APIError
	require.ErrorAs(t, got, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestExecuteCustomOnReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL)

	var status int
	Execute(context.Background(), client, &clientstate.ErrorFlags{}, Request{URL: client.URL("/auth")}, Hooks[int]{
		OnReady:   func(resp *http.Response) bool { return resp.StatusCode < 300 },
		ParseBody: func(resp *http.Response) (int, error) { return resp.StatusCode, nil },
		OnSuccess: func(code int) { status = code },
	})

	assert.Equal(t, http.StatusAccepted, status)
}

func TestExecuteParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL)
	parseErr := errors.New("boom")

	var got error
	Execute(context.Background(), client, &clientstate.ErrorFlags{}, Request{URL: client.URL("/users")}, Hooks[string]{
		ParseBody: func(*http.Response) (string, error) { return "", parseErr },
		OnError:   func(err error) { got = err },
	})

	assert.ErrorIs(t, got, parseErr)
}

func TestExecuteDefaultParserNeedsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("42"))
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL)

	var got error
	Execute(context.Background(), client, &clientstate.ErrorFlags{}, Request{URL: client.URL("/users")}, Hooks[int]{
		OnError: func(err error) { got = err },
	})

	assert.ErrorContains(t, got, "no default body parser")
}

func TestExecuteNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, _, _ := newTestClient(t, baseURL)
	flags := &clientstate.ErrorFlags{}

	settled := false
	Execute(context.Background(), client, flags, Request{URL: client.URL("/auth")}, Hooks[string]{
		OnSettle: func() { settled = true },
	})

	assert.True(t, settled)
	assert.True(t, flags.Remote)
}

func TestExecuteSendsHeadersAndRedactsThemInLogs(t *testing.T) {
	var checksum string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checksum = r.Header.Get(headers.ChecksumHeader)
	}))
	defer server.Close()

	client, logs, _ := newTestClient(t, server.URL)

	Execute(context.Background(), client, &clientstate.ErrorFlags{}, Request{URL: client.URL("/users"), Token: "12345"}, Hooks[string]{})

	assert.Equal(t, headers.Checksum("12345", "/users"), checksum)

	started := logs.FilterMessage("HTTP request started").All()
	require.Len(t, started, 1)
	logged, ok := started[0].ContextMap()["headers"].(http.Header)
	require.True(t, ok)
	assert.Equal(t, "REDACTED", logged.Get(headers.ChecksumHeader))

	ended := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, ended, 1)
	assert.Equal(t, int64(http.StatusOK), ended[0].ContextMap()["status_code"])
}
