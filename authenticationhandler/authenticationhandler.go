// authenticationhandler/authenticationhandler.go

package authenticationhandler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-noclist-client/clientstate"
	"github.com/deploymenttheory/go-noclist-client/headers"
	"github.com/deploymenttheory/go-noclist-client/httpclient"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/status"
	"github.com/deploymenttheory/go-noclist-client/tokencache"
	"go.uber.org/zap"
)

// AuthPath is the handshake endpoint.
const AuthPath = "/auth"

// ErrMissingToken marks a handshake response without a token header.
var ErrMissingToken = errors.New("handshake response carries no authentication token")

// Negotiator obtains a fresh token through the handshake endpoint.
type Negotiator struct {
	client      *httpclient.Client
	cache       *tokencache.Cache
	log         logger.Logger
	MaxAttempts int
	Now         func() time.Time
}

// handshake is what the executor extracts from an accepted /auth response.
type handshake struct {
	token string
	date  string
}

// NewNegotiator returns a Negotiator that stores every handshake result in cache.
func NewNegotiator(client *httpclient.Client, cache *tokencache.Cache) *Negotiator {
	return &Negotiator{
		client:      client,
		cache:       cache,
		log:         client.Logger,
		MaxAttempts: client.Config().MaxRetryAttempts,
		Now:         time.Now,
	}
}

// Negotiate runs handshake attempts until one yields a token or the attempt
// budget is spent. Every attempt, failed or not, overwrites the token cache.
// It reports whether state now holds a token.
func (n *Negotiator) Negotiate(ctx context.Context, state *clientstate.State) bool {
	state.RemainingAttempts = n.MaxAttempts
	url := n.client.URL(AuthPath)

	for state.RemainingAttempts > 0 {
		if err := ctx.Err(); err != nil {
			_ = n.log.Error("Handshake interrupted", zap.Error(err))
			break
		}

		n.attempt(ctx, state, url)
		if state.HasToken() {
			n.log.Info("Handshake succeeded", zap.Int("attempts_left", state.RemainingAttempts))
			return true
		}
		if state.RemainingAttempts > 0 {
			n.log.LogRetryAttempt("handshake_retry", http.MethodGet, url, state.RemainingAttempts, "no token received")
		}
	}

	n.log.Warn("Handshake attempts exhausted", zap.Int("max_attempts", n.MaxAttempts))
	return false
}

func (n *Negotiator) attempt(ctx context.Context, state *clientstate.State, url string) {
	req := httpclient.Request{Method: http.MethodGet, URL: url}
	// date of any response, accepted or not
	observed := ""

	httpclient.Execute(ctx, n.client, &state.Flags, req, httpclient.Hooks[handshake]{
		OnReady: func(resp *http.Response) bool {
			observed = resp.Header.Get(headers.DateHeader)
			return status.IsSuccess(resp.StatusCode)
		},
		ParseBody: func(resp *http.Response) (handshake, error) {
			return handshake{
				token: resp.Header.Get(headers.AuthTokenHeader),
				date:  resp.Header.Get(headers.DateHeader),
			}, nil
		},
		OnSuccess: func(h handshake) {
			generated := h.date
			if generated == "" {
				generated = n.httpNow()
			}
			if h.token == "" {
				n.remoteError(state, ErrMissingToken, url)
			}
			n.cache.Save(tokencache.NewToken(h.token, 0, generated))
		},
		OnError: func(err error) {
			n.remoteError(state, err, url)
			generated := observed
			if generated == "" {
				generated = n.httpNow()
			}
			n.cache.Save(tokencache.NewToken("", 0, generated))
		},
		OnSettle: func() {
			state.RemainingAttempts--
			n.log.Debug("Handshake attempt settled", zap.Object("state", state))
		},
	})
}

func (n *Negotiator) remoteError(state *clientstate.State, err error, url string) {
	state.Flags.SetRemote()
	n.client.ErrorLog.Log(err, logger.LayerRemote,
		zap.String("method", http.MethodGet),
		zap.String("url", url),
		zap.Int("attempts_left", state.RemainingAttempts),
	)
}

func (n *Negotiator) httpNow() string {
	return n.Now().UTC().Format(http.TimeFormat)
}
