// httpclient/client_configuration.go
// Description: This file contains the client configuration, its defaults and validation.
package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-noclist-client/logger"
)

const (
	DefaultScheme               = "http"
	DefaultHost                 = "0.0.0.0"
	DefaultPort                 = "8888"
	DefaultLogLevelString       = "LogLevelInfo"
	DefaultLogOutputFormat      = logger.LogOutputPretty
	DefaultLogConsoleSeparator  = "	"
	DefaultMaxRetryAttempts     = 3
	DefaultMaxReauthentications = 3
	DefaultTimeout              = 10 * time.Second
	DefaultTokenCachePath       = "token.json"
	DefaultErrorLogDir          = "."
	DefaultErrorLogMaxSizeMB    = logger.DefaultErrorLogMaxSizeMB
	DefaultHideSensitiveData    = true
	DefaultFollowRedirects      = false
	DefaultMaxRedirects         = 5
)

// RemoteEndpointConfig locates the remote service. It is resolved once into
// a base URL and does not change during a run.
type RemoteEndpointConfig struct {
	Scheme string
	Host   string
	Port   string
}

// BaseURL returns scheme://host:port.
func (e RemoteEndpointConfig) BaseURL() string {
	u := url.URL{Scheme: e.Scheme, Host: net.JoinHostPort(e.Host, e.Port)}
	return u.String()
}

// ParseEndpoint splits a base URL such as http://0.0.0.0:8888 into its parts.
// A missing port takes the scheme's well-known port.
func ParseEndpoint(rawURL string) (RemoteEndpointConfig, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RemoteEndpointConfig{}, err
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return RemoteEndpointConfig{}, fmt.Errorf("base URL must include scheme and host: %q", rawURL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return RemoteEndpointConfig{Scheme: u.Scheme, Host: u.Hostname(), Port: port}, nil
}

// ClientConfig holds every option of a client run.
type ClientConfig struct {
	Endpoint RemoteEndpointConfig

	// Log
	LogLevel            string
	LogOutputFormat     string // "json" or "pretty"
	LogConsoleSeparator string
	Debug               bool // forces LogLevelDebug and traces the client state after every request
	HideSensitiveData   bool

	// Attempts
	MaxRetryAttempts     int // per phase: handshake and listing each get this many attempts
	MaxReauthentications int // listing rejections that may trigger a new handshake

	// Transport
	Timeout         time.Duration
	FollowRedirects bool
	MaxRedirects    int
	ProxyURL        string

	// Files
	TokenCachePath    string
	ErrorLogDir       string
	ErrorLogMaxSizeMB int
}

// SetDefaultValuesClientConfig sets default values for the client configuration. Ensuring that all fields have a valid or minimum value.
func SetDefaultValuesClientConfig(config *ClientConfig) {
	setDefaultString(&config.Endpoint.Scheme, DefaultScheme)
	setDefaultString(&config.Endpoint.Host, DefaultHost)
	setDefaultString(&config.Endpoint.Port, DefaultPort)
	setDefaultString(&config.LogLevel, DefaultLogLevelString)
	setDefaultString(&config.LogOutputFormat, DefaultLogOutputFormat)
	setDefaultString(&config.LogConsoleSeparator, DefaultLogConsoleSeparator)
	setDefaultInt(&config.MaxRetryAttempts, DefaultMaxRetryAttempts, 1)
	setDefaultInt(&config.MaxReauthentications, DefaultMaxReauthentications, 0)
	setDefaultDuration(&config.Timeout, DefaultTimeout)
	setDefaultInt(&config.MaxRedirects, DefaultMaxRedirects, 1)
	setDefaultString(&config.TokenCachePath, DefaultTokenCachePath)
	setDefaultString(&config.ErrorLogDir, DefaultErrorLogDir)
	setDefaultInt(&config.ErrorLogMaxSizeMB, DefaultErrorLogMaxSizeMB, 1)

	config.Endpoint.Scheme = strings.ToLower(config.Endpoint.Scheme)
	config.LogLevel = normalizeLogLevel(config.LogLevel)
	if config.Debug {
		config.LogLevel = "LogLevelDebug"
	}
}

func validateClientConfig(config ClientConfig, populateDefaults bool) error {
	if populateDefaults {
		SetDefaultValuesClientConfig(&config)
	}

	if config.Endpoint.Scheme != "http" && config.Endpoint.Scheme != "https" {
		return fmt.Errorf("invalid scheme: %q, expected http or https", config.Endpoint.Scheme)
	}

	if config.Endpoint.Host == "" {
		return errors.New("host cannot be empty")
	}

	port, err := strconv.Atoi(config.Endpoint.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %q", config.Endpoint.Port)
	}

	validLogLevels := []string{
		"LogLevelDebug",
		"LogLevelInfo",
		"LogLevelWarn",
		"LogLevelError",
		"LogLevelDPanic",
		"LogLevelPanic",
		"LogLevelFatal",
	}
	if !slices.Contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validLogFormats := []string{
		logger.LogOutputJSON,
		logger.LogOutputPretty,
	}
	if !slices.Contains(validLogFormats, config.LogOutputFormat) {
		return fmt.Errorf("invalid log output format: %s", config.LogOutputFormat)
	}

	if config.MaxRetryAttempts < 1 {
		return errors.New("max retry attempts cannot be less than 1")
	}

	if config.MaxReauthentications < 0 {
		return errors.New("max reauthentications cannot be less than 0")
	}

	if config.Timeout < 0 {
		return errors.New("timeout cannot be less than 0 seconds")
	}

	if config.FollowRedirects && config.MaxRedirects < 1 {
		return errors.New("max redirects cannot be less than 1")
	}

	if config.TokenCachePath == "" {
		return errors.New("token cache path cannot be empty")
	}

	return nil
}

// normalizeLogLevel accepts both "debug" and "LogLevelDebug" spellings.
func normalizeLogLevel(level string) string {
	if strings.HasPrefix(level, "LogLevel") {
		return level
	}
	switch strings.ToLower(level) {
	case "debug":
		return "LogLevelDebug"
	case "info":
		return "LogLevelInfo"
	case "warn", "warning":
		return "LogLevelWarn"
	case "error":
		return "LogLevelError"
	case "dpanic":
		return "LogLevelDPanic"
	case "panic":
		return "LogLevelPanic"
	case "fatal":
		return "LogLevelFatal"
	}
	return level
}

func setDefaultString(field *string, defaultValue string) {
	if *field == "" {
		*field = defaultValue
	}
}

func setDefaultInt(field *int, defaultValue, minValue int) {
	if *field < minValue {
		*field = defaultValue
	}
}

func setDefaultDuration(field *time.Duration, defaultValue time.Duration) {
	if *field <= 0 {
		*field = defaultValue
	}
}
