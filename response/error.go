// response/error.go
// This package reads response bodies and turns rejected responses into structured errors.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/status"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// maxErrorBodySize bounds how much of a rejected body is kept for the error log.
const maxErrorBodySize = 64 * 1024

// APIError represents a response the client did not accept.
type APIError struct {
	StatusCode  int    `json:"status_code"` // HTTP status code
	Method      string `json:"method"`      // HTTP method used for the request
	URL         string `json:"url"`         // The URL of the HTTP request
	Message     string `json:"message"`     // Summary of the error
	RawResponse string `json:"raw_response,omitempty"`
}

// Error returns a string representation of the APIError, making it compatible with the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		e.Message = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API Error: StatusCode=%d, Method=%s, URL=%s, Message=%s", e.StatusCode, e.Method, e.URL, e.Message)
}

// HandleAPIErrorResponse builds an APIError from a rejected response. The body
// is consumed; its message is extracted according to the content type.
func HandleAPIErrorResponse(resp *http.Response, log logger.Logger) *APIError {
	apiError := &APIError{
		StatusCode: resp.StatusCode,
		Message:    status.TranslateStatusCode(resp),
	}
	if resp.Request != nil {
		apiError.Method = resp.Request.Method
		if resp.Request.URL != nil {
			apiError.URL = resp.Request.URL.String()
		}
	}

	if resp.Body == nil {
		return apiError
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		log.Warn("Failed to read error response body", zap.Int("status_code", resp.StatusCode), zap.Error(err))
		apiError.RawResponse = "Failed to read response body"
		return apiError
	}
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return apiError
	}

	mimeType, _ := ParseContentTypeHeader(resp.Header.Get("Content-Type"))
	switch mimeType {
	case "application/json":
		parseJSONResponse(bodyBytes, apiError)
	case "application/xml", "text/xml":
		parseXMLResponse(bodyBytes, apiError)
	case "text/html":
		parseHTMLResponse(bodyBytes, apiError)
	default:
		parseTextResponse(bodyBytes, apiError)
	}

	log.Debug("Parsed error response", zap.Int("status_code", apiError.StatusCode), zap.String("message", apiError.Message))

	return apiError
}

// parseJSONResponse looks for a "message" or "error" member in a JSON error body.
func parseJSONResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return
	}
	if body.Message != "" {
		apiError.Message = body.Message
		return
	}

	var errString string
	if err := json.Unmarshal(body.Error, &errString); err == nil && errString != "" {
		apiError.Message = errString
		return
	}
	var errObject struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &errObject); err == nil && errObject.Message != "" {
		apiError.Message = errObject.Message
	}
}

// parseXMLResponse dynamically parses XML error responses and accumulates potential error messages.
func parseXMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := xmlquery.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var traverse func(*xmlquery.Node)
	traverse = func(n *xmlquery.Node) {
		if n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) != "" {
			messages = append(messages, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	}
}

// parseTextResponse uses a plain text body as the message.
func parseTextResponse(bodyBytes []byte, apiError *APIError) {
	bodyText := strings.TrimSpace(string(bodyBytes))
	apiError.RawResponse = bodyText
	apiError.Message = bodyText
}

// parseHTMLResponse collects the text of the <title>, <h1> and <p> elements of an HTML error page.
func parseHTMLResponse(bodyBytes []byte, apiError *APIError) {
	apiError.RawResponse = string(bodyBytes)

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var text func(*html.Node, *strings.Builder)
	text = func(n *html.Node, sb *strings.Builder) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			text(c, sb)
		}
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "title" || n.Data == "h1" || n.Data == "p") {
			var sb strings.Builder
			text(n, &sb)
			if sb.Len() > 0 {
				messages = append(messages, sb.String())
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(messages) > 0 {
		apiError.Message = strings.Join(messages, "; ")
	}
}
