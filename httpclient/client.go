// httpclient/client.go
/* The `httpclient` package provides the HTTP client shared by the handshake and
listing phases. The main `Client` structure encapsulates the resolved endpoint,
an embedded standard HTTP client with the configured timeout, redirect and proxy
policy, the single-permit concurrency gate and the loggers. Requests are issued
through Execute, which reports outcomes through hooks rather than return values. */
package httpclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/deploymenttheory/go-noclist-client/concurrency"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/proxy"
	"github.com/deploymenttheory/go-noclist-client/redirecthandler"
	"go.uber.org/zap"
)

// Master struct/object
type Client struct {
	config ClientConfig
	http   *http.Client

	BaseURL     string
	Logger      logger.Logger
	ErrorLog    *logger.ErrorLog
	Concurrency *concurrency.ConcurrencyHandler
}

// BuildClient creates a new HTTP client with the provided configuration,
// building the console logger and the on-disk error logs from it.
func BuildClient(config ClientConfig, populateDefaultValues bool) (*Client, error) {
	if populateDefaultValues {
		SetDefaultValuesClientConfig(&config)
	}

	err := validateClientConfig(config, false)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	parsedLogLevel := logger.ParseLogLevelFromString(config.LogLevel)
	log := logger.BuildLogger(parsedLogLevel, config.LogOutputFormat, config.LogConsoleSeparator)

	errLog, err := logger.NewErrorLog(config.ErrorLogDir, config.ErrorLogMaxSizeMB)
	if err != nil {
		_ = log.Error("Failed to open error logs", zap.String("dir", config.ErrorLogDir), zap.Error(err))
		return nil, err
	}

	client, err := NewClient(config, log, errLog)
	if err != nil {
		_ = errLog.Close()
		return nil, err
	}
	return client, nil
}

// NewClient assembles a Client from an already validated configuration and
// externally built loggers. A nil errLog discards error log entries.
func NewClient(config ClientConfig, log logger.Logger, errLog *logger.ErrorLog) (*Client, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if errLog == nil {
		errLog = logger.NewNopErrorLog()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	if err := redirecthandler.SetupRedirectHandler(httpClient, config.FollowRedirects, config.MaxRedirects, log); err != nil {
		_ = log.Error("Failed to set up redirect handler", zap.Error(err))
		return nil, err
	}

	if err := proxy.InitializeProxy(httpClient, config.ProxyURL, log); err != nil {
		return nil, err
	}

	client := &Client{
		config:      config,
		http:        httpClient,
		BaseURL:     config.Endpoint.BaseURL(),
		Logger:      log,
		ErrorLog:    errLog,
		Concurrency: concurrency.NewConcurrencyHandler(log),
	}

	log.Debug("New API client initialized",
		zap.String("Base URL", client.BaseURL),
		zap.String("Logging Level", config.LogLevel),
		zap.String("Log Encoding Format", config.LogOutputFormat),
		zap.Bool("Debug", config.Debug),
		zap.Bool("Hide Sensitive Data In Logs", config.HideSensitiveData),
		zap.Int("Max Retry Attempts", config.MaxRetryAttempts),
		zap.Int("Max Reauthentications", config.MaxReauthentications),
		zap.Bool("Follow Redirects", config.FollowRedirects),
		zap.Int("Max Redirects", config.MaxRedirects),
		zap.Duration("Timeout", config.Timeout),
		zap.String("Token Cache Path", config.TokenCachePath),
		zap.String("Error Log Dir", config.ErrorLogDir),
	)

	return client, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return c.config
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// Close flushes the loggers and closes the error log files.
func (c *Client) Close() error {
	_ = c.Logger.Sync()
	return c.ErrorLog.Close()
}
