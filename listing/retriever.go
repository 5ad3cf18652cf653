/* Package listing fetches the user listing with the current token and
normalises it into 19-digit identifiers. A rejected request ends the listing
phase at once so that a new handshake can run; any other failure, including
a body with no usable lines, is retried with the same token. */
package listing

import (
	"context"
	"net/http"

	"github.com/deploymenttheory/go-noclist-client/clientstate"
	"github.com/deploymenttheory/go-noclist-client/httpclient"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/response"
	"github.com/deploymenttheory/go-noclist-client/status"
	"go.uber.org/zap"
)

// UsersPath is the listing endpoint. It is also the path signed by the checksum.
const UsersPath = "/users"

// Outcome is how a listing phase ended.
type Outcome int

const (
	// OutcomeListing means a non-empty listing is stored in the state.
	OutcomeListing Outcome = iota
	// OutcomeReauthenticate means the server rejected the token.
	OutcomeReauthenticate
	// OutcomeExhausted means every attempt failed or returned nothing usable.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeListing:
		return "listing"
	case OutcomeReauthenticate:
		return "reauthenticate"
	case OutcomeExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Retriever requests the listing endpoint.
type Retriever struct {
	client      *httpclient.Client
	log         logger.Logger
	MaxAttempts int
}

// NewRetriever returns a Retriever with the client's attempt budget.
func NewRetriever(client *httpclient.Client) *Retriever {
	return &Retriever{
		client:      client,
		log:         client.Logger,
		MaxAttempts: client.Config().MaxRetryAttempts,
	}
}

// Retrieve runs listing attempts with state's current token. The budget is
// independent from the handshake's and is reset on every call.
func (r *Retriever) Retrieve(ctx context.Context, state *clientstate.State) Outcome {
	state.RemainingAttempts = r.MaxAttempts
	url := r.client.URL(UsersPath)

	for state.RemainingAttempts > 0 {
		if err := ctx.Err(); err != nil {
			_ = r.log.Error("Listing interrupted", zap.Error(err))
			break
		}

		rejected := r.attempt(ctx, state, url)
		if state.HasListing() {
			r.log.Info("Listing retrieved", zap.Int("entries", len(state.Listing)))
			return OutcomeListing
		}
		if rejected {
			r.log.Warn("Listing request rejected, token must be renegotiated")
			return OutcomeReauthenticate
		}
		if state.RemainingAttempts > 0 {
			r.log.LogRetryAttempt("listing_retry", http.MethodGet, url, state.RemainingAttempts, "no listing received")
		}
	}

	r.log.Warn("Listing attempts exhausted", zap.Int("max_attempts", r.MaxAttempts))
	return OutcomeExhausted
}

// attempt issues one listing request and reports whether it was rejected.
func (r *Retriever) attempt(ctx context.Context, state *clientstate.State, url string) bool {
	rejected := false

	req := httpclient.Request{Method: http.MethodGet, URL: url, Token: state.AuthToken}

	httpclient.Execute(ctx, r.client, &state.Flags, req, httpclient.Hooks[[]string]{
		OnReady: func(resp *http.Response) bool {
			if status.IsSuccess(resp.StatusCode) {
				return true
			}
			if status.IsRedirectStatusCode(resp.StatusCode) {
				r.log.Warn("Listing endpoint answered with a redirect, which is not followed",
					zap.Int("status_code", resp.StatusCode),
					zap.String("location", resp.Header.Get("Location")),
				)
			}
			if status.IsAuthRejection(resp.StatusCode) {
				rejected = true
				state.RemainingAttempts = 0
			}
			return false
		},
		ParseBody: func(resp *http.Response) ([]string, error) {
			body, err := response.ReadText(resp)
			if err != nil {
				return nil, err
			}
			return Normalize(body), nil
		},
		OnSuccess: func(entries []string) {
			if len(entries) == 0 {
				r.log.Debug("Listing response had no valid entries")
				return
			}
			state.Listing = entries
		},
		OnError: func(err error) {
			state.Flags.SetRemote()
			r.client.ErrorLog.Log(err, logger.LayerRemote,
				zap.String("method", http.MethodGet),
				zap.String("url", url),
				zap.Int("attempts_left", state.RemainingAttempts),
				zap.Bool("rejected", rejected),
			)
		},
		OnSettle: func() {
			if state.RemainingAttempts > 0 {
				state.RemainingAttempts--
			}
			r.log.Debug("Listing attempt settled", zap.Object("state", state))
		},
	})

	return rejected
}
