// status.go
// This package classifies HTTP status codes for the handshake and listing endpoints.
package status

import (
	"fmt"
	"net/http"
)

// IsSuccess reports whether the response carries the only status the remote
// service uses for an accepted request.
func IsSuccess(statusCode int) bool {
	return statusCode == http.StatusOK
}

// IsAuthRejection reports whether a listing response means the token was refused.
// The service answers a bad checksum with 500 rather than 401, so every status
// from 300 upwards counts, except 404 which is treated as a transient miss.
func IsAuthRejection(statusCode int) bool {
	return statusCode >= http.StatusMultipleChoices && statusCode != http.StatusNotFound
}

// IsRedirectStatusCode checks if the provided HTTP status code is one of the redirect codes.
//
// - 301 Moved Permanently
// - 302 Found
// - 303 See Other
// - 307 Temporary Redirect
// - 308 Permanent Redirect
func IsRedirectStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// IsPermanentRedirect checks if the provided HTTP status code is one of the permanent redirect codes.
func IsPermanentRedirect(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// TranslateStatusCode provides a human-readable message for HTTP status codes.
func TranslateStatusCode(resp *http.Response) string {
	if resp == nil {
		return "No status code received, possible network or connection error."
	}

	messages := map[int]string{
		http.StatusOK:                  "Request successful.",
		http.StatusBadRequest:          "Bad request. Verify the syntax of the request.",
		http.StatusUnauthorized:        "Authentication failed. Verify the token being used for the request.",
		http.StatusForbidden:           "Invalid permissions. Verify the checksum header of the request.",
		http.StatusNotFound:            "Resource not found. Verify the URL path is correct.",
		http.StatusRequestTimeout:      "Request timeout. The server timed out waiting for the request.",
		http.StatusTooManyRequests:     "Too many requests. The client has sent too many requests in a given amount of time.",
		http.StatusInternalServerError: "Internal server error. The server refused the request, usually because of an invalid token.",
		http.StatusBadGateway:          "Bad gateway. The server received an invalid response from the upstream server.",
		http.StatusServiceUnavailable:  "Service unavailable. The server is currently unable to handle the request.",
		http.StatusGatewayTimeout:      "Gateway timeout. The server did not receive a timely response from the upstream server.",
	}

	if message, exists := messages[resp.StatusCode]; exists {
		return message
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text + "."
	}
	return fmt.Sprintf("Unknown status code: %d", resp.StatusCode)
}
