// httpclient/config_loader.go
// Description: Loads ClientConfig from flags, environment variables and an optional config file through viper.
package httpclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. NOCLIST_HOST.
const EnvPrefix = "NOCLIST"

// Configuration keys. Flags bound onto a viper instance must use these names.
const (
	KeyTimeout              = "timeout"
	KeyDebug                = "debug"
	KeyProtocol             = "protocol"
	KeyScheme               = "scheme"
	KeyHost                 = "host"
	KeyPort                 = "port"
	KeyLogLevel             = "log_level"
	KeyLogFormat            = "log_format"
	KeyLogSeparator         = "log_console_separator"
	KeyMaxRetryAttempts     = "max_retry_attempts"
	KeyMaxReauthentications = "max_reauthentications"
	KeyTokenCachePath       = "token_cache_path"
	KeyErrorLogDir          = "error_log_dir"
	KeyErrorLogMaxSizeMB    = "error_log_max_size_mb"
	KeyFollowRedirects      = "follow_redirects"
	KeyMaxRedirects         = "max_redirects"
	KeyProxyURL             = "proxy_url"
	KeyHideSensitiveData    = "hide_sensitive_data"
)

// NewViper returns a viper instance with the client defaults registered and
// environment lookup enabled under EnvPrefix.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTimeout, int(DefaultTimeout/time.Second))
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyHost, DefaultHost)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLogLevel, DefaultLogLevelString)
	v.SetDefault(KeyLogFormat, DefaultLogOutputFormat)
	v.SetDefault(KeyLogSeparator, DefaultLogConsoleSeparator)
	v.SetDefault(KeyMaxRetryAttempts, DefaultMaxRetryAttempts)
	v.SetDefault(KeyMaxReauthentications, DefaultMaxReauthentications)
	v.SetDefault(KeyTokenCachePath, DefaultTokenCachePath)
	v.SetDefault(KeyErrorLogDir, DefaultErrorLogDir)
	v.SetDefault(KeyErrorLogMaxSizeMB, DefaultErrorLogMaxSizeMB)
	v.SetDefault(KeyFollowRedirects, DefaultFollowRedirects)
	v.SetDefault(KeyMaxRedirects, DefaultMaxRedirects)
	v.SetDefault(KeyHideSensitiveData, DefaultHideSensitiveData)

	// protocol and scheme are aliases; no default so that either may win.
	_ = v.BindEnv(KeyProtocol)
	_ = v.BindEnv(KeyScheme)
	_ = v.BindEnv(KeyProxyURL)

	return v
}

// LoadConfig reads a ClientConfig out of v, fills defaults and validates it.
func LoadConfig(v *viper.Viper) (*ClientConfig, error) {
	scheme := v.GetString(KeyProtocol)
	if scheme == "" {
		scheme = v.GetString(KeyScheme)
	}

	config := &ClientConfig{
		Endpoint: RemoteEndpointConfig{
			Scheme: scheme,
			Host:   v.GetString(KeyHost),
			Port:   v.GetString(KeyPort),
		},
		LogLevel:             v.GetString(KeyLogLevel),
		LogOutputFormat:      v.GetString(KeyLogFormat),
		LogConsoleSeparator:  v.GetString(KeyLogSeparator),
		Debug:                v.GetBool(KeyDebug),
		HideSensitiveData:    v.GetBool(KeyHideSensitiveData),
		MaxRetryAttempts:     v.GetInt(KeyMaxRetryAttempts),
		MaxReauthentications: v.GetInt(KeyMaxReauthentications),
		Timeout:              time.Duration(v.GetInt(KeyTimeout)) * time.Second,
		FollowRedirects:      v.GetBool(KeyFollowRedirects),
		MaxRedirects:         v.GetInt(KeyMaxRedirects),
		ProxyURL:             v.GetString(KeyProxyURL),
		TokenCachePath:       v.GetString(KeyTokenCachePath),
		ErrorLogDir:          v.GetString(KeyErrorLogDir),
		ErrorLogMaxSizeMB:    v.GetInt(KeyErrorLogMaxSizeMB),
	}

	SetDefaultValuesClientConfig(config)

	if err := validateClientConfig(*config, false); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromFile loads http client configuration settings from a file
// (any format viper understands). Environment variables still override it.
func LoadConfigFromFile(filepath string) (*ClientConfig, error) {
	v := NewViper()
	v.SetConfigFile(filepath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", filepath, err)
	}
	return LoadConfig(v)
}

// LoadConfigFromEnv loads HTTP client configuration settings from NOCLIST_* environment variables.
// If any environment variables are not set, the default values defined in the constants are used instead.
func LoadConfigFromEnv() (*ClientConfig, error) {
	return LoadConfig(NewViper())
}
