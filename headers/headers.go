// headers/headers.go
package headers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-noclist-client/logger"
	"go.uber.org/zap"
)

const (
	// ChecksumHeader carries hex(sha256(token + path)) on listing requests.
	ChecksumHeader = "X-Request-Checksum"
	// AuthTokenHeader is the handshake response header holding the issued token.
	AuthTokenHeader = "Badsec-Authentication-Token"
	// DateHeader is the handshake response header used as the token's issue time.
	DateHeader = "Date"
	// UserAgentHeader identifies the client on every request.
	UserAgentHeader = "User-Agent"

	redacted = "REDACTED"
)

// Checksum returns the lowercase hex SHA-256 digest of token concatenated with path.
func Checksum(token, path string) string {
	sum := sha256.Sum256([]byte(token + path))
	return hex.EncodeToString(sum[:])
}

// HeaderHandler is responsible for managing and setting headers on HTTP requests.
type HeaderHandler struct {
	req *http.Request // The http.Request for which headers are being managed
	log logger.Logger // The logger to use for logging headers
}

// NewHeaderHandler creates a new instance of HeaderHandler for a given http.Request and logger.
func NewHeaderHandler(req *http.Request, log logger.Logger) *HeaderHandler {
	return &HeaderHandler{
		req: req,
		log: log,
	}
}

// SetUserAgent sets the User-Agent header for the request.
func (h *HeaderHandler) SetUserAgent(userAgent string) {
	h.req.Header.Set(UserAgentHeader, userAgent)
}

// SetChecksum signs the request path with the token.
func (h *HeaderHandler) SetChecksum(token string) {
	h.req.Header.Set(ChecksumHeader, Checksum(token, h.req.URL.Path))
}

// LogHeaders prints the current request headers at debug level, redacting
// credentials when hideSensitiveData is set.
func (h *HeaderHandler) LogHeaders(hideSensitiveData bool) {
	if h.log.GetLogLevel() > logger.LogLevelDebug {
		return
	}
	h.log.Debug("HTTP Request Headers", zap.String("Headers", HeadersToString(RedactHeaders(hideSensitiveData, h.req.Header))))
}

// RedactHeaders returns a copy of headers with sensitive values replaced.
func RedactHeaders(hideSensitiveData bool, headers http.Header) http.Header {
	out := make(http.Header, len(headers))
	for name, values := range headers {
		copied := make([]string, len(values))
		for i, v := range values {
			copied[i] = RedactSensitiveHeaderData(hideSensitiveData, name, v)
		}
		out[name] = copied
	}
	return out
}

// HeadersToString converts a http.Header to a string for logging,
// with each header on a new line for readability.
func HeadersToString(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headerStrings := make([]string, 0, len(names))
	for _, name := range names {
		headerStrings = append(headerStrings, fmt.Sprintf("%s: %s", name, strings.Join(headers[name], ", ")))
	}
	return strings.Join(headerStrings, "\n")
}

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if !hideSensitiveData {
		return value
	}
	switch http.CanonicalHeaderKey(key) {
	case ChecksumHeader, AuthTokenHeader, "Authorization":
		return redacted
	}
	return value
}
