/* Package orchestrator drives a client run: cached token or handshake, then
listing, with a new handshake each time the listing endpoint rejects the token.
The run ends Done with a listing, or Exhausted with the combined failure flags. */
package orchestrator

import (
	"context"

	"github.com/deploymenttheory/go-noclist-client/authenticationhandler"
	"github.com/deploymenttheory/go-noclist-client/clientstate"
	"github.com/deploymenttheory/go-noclist-client/concurrency"
	"github.com/deploymenttheory/go-noclist-client/httpclient"
	"github.com/deploymenttheory/go-noclist-client/internal/filestore"
	"github.com/deploymenttheory/go-noclist-client/listing"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/deploymenttheory/go-noclist-client/tokencache"
	"go.uber.org/zap"
)

// Phase is a state of the run.
type Phase int

const (
	PhaseNeedToken Phase = iota
	PhaseHandshaking
	PhaseFetchingListing
	PhaseReauthenticating
	PhaseDone
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseNeedToken:
		return "need_token"
	case PhaseHandshaking:
		return "handshaking"
	case PhaseFetchingListing:
		return "fetching_listing"
	case PhaseReauthenticating:
		return "reauthenticating"
	case PhaseDone:
		return "done"
	case PhaseExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Terminal reports whether the run stops in p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseExhausted
}

// Result is the externally visible outcome of a run.
type Result struct {
	Phase      Phase
	Listing    []string
	Flags      clientstate.ErrorFlags
	ExitStatus int
	// Requests counts the HTTP calls of the run and how many of them failed.
	Requests   concurrency.MetricsSnapshot
}

// Orchestrator owns the state of one run.
type Orchestrator struct {
	state      *clientstate.State
	cache      *tokencache.Cache
	negotiator *authenticationhandler.Negotiator
	retriever  *listing.Retriever
	gate       *concurrency.ConcurrencyHandler
	log        logger.Logger

	MaxReauthentications int
	// Transitions records every phase entered, starting with PhaseNeedToken.
	Transitions []Phase
}

// New wires the components of a run around a fresh ClientState.
func New(client *httpclient.Client, store *filestore.Store) *Orchestrator {
	state := clientstate.New()
	config := client.Config()
	cache := tokencache.New(store, config.TokenCachePath, state, client.Logger, client.ErrorLog)

	return &Orchestrator{
		state:                state,
		cache:                cache,
		negotiator:           authenticationhandler.NewNegotiator(client, cache),
		retriever:            listing.NewRetriever(client),
		gate:                 client.Concurrency,
		log:                  client.Logger,
		MaxReauthentications: config.MaxReauthentications,
	}
}

// State returns the run's state.
func (o *Orchestrator) State() *clientstate.State {
	return o.state
}

// Cache returns the token cache of the run.
func (o *Orchestrator) Cache() *tokencache.Cache {
	return o.cache
}

// Negotiator returns the handshake component of the run.
func (o *Orchestrator) Negotiator() *authenticationhandler.Negotiator {
	return o.negotiator
}

// Run executes the state machine until it reaches Done or Exhausted.
func (o *Orchestrator) Run(ctx context.Context) Result {
	phase := o.enter(PhaseNeedToken)
	reauthentications := 0

	for !phase.Terminal() {
		switch phase {
		case PhaseNeedToken:
			if _, ok := o.cache.Cached(); ok {
				o.log.Info("Using cached token")
				phase = o.enter(PhaseFetchingListing)
			} else {
				phase = o.enter(PhaseHandshaking)
			}

		case PhaseHandshaking, PhaseReauthenticating:
			if o.negotiator.Negotiate(ctx, o.state) {
				phase = o.enter(PhaseFetchingListing)
			} else {
				phase = o.enter(PhaseExhausted)
			}

		case PhaseFetchingListing:
			switch o.retriever.Retrieve(ctx, o.state) {
			case listing.OutcomeListing:
				phase = o.enter(PhaseDone)
			case listing.OutcomeReauthenticate:
				if reauthentications >= o.MaxReauthentications {
					o.log.Warn("Reauthentication limit reached", zap.Int("max_reauthentications", o.MaxReauthentications))
					phase = o.enter(PhaseExhausted)
					break
				}
				reauthentications++
				phase = o.enter(PhaseReauthenticating)
			default:
				phase = o.enter(PhaseExhausted)
			}
		}
	}

	return o.finish(phase)
}

func (o *Orchestrator) enter(phase Phase) Phase {
	o.Transitions = append(o.Transitions, phase)
	o.log.Debug("Entering phase", zap.String(logger.PhaseKey, phase.String()), zap.Object("state", o.state))
	return phase
}

// finish derives the empty-token and empty-body flags and the exit status.
func (o *Orchestrator) finish(phase Phase) Result {
	if !o.state.HasToken() {
		o.state.Flags.SetEmptyToken()
	}
	if !o.state.HasListing() {
		o.state.Flags.SetEmptyBody()
	}

	result := Result{
		Phase:    phase,
		Listing:  o.state.Listing,
		Flags:    o.state.Flags,
		Requests: o.gate.Snapshot(),
	}
	if phase != PhaseDone {
		result.ExitStatus = o.state.Flags.ExitStatus()
	}

	o.log.Info("Run finished",
		zap.String(logger.PhaseKey, phase.String()),
		zap.Int("exit_status", result.ExitStatus),
		zap.Object("flags", o.state.Flags),
		zap.Int64("total_requests", result.Requests.TotalRequests),
		zap.Int64("total_errors", result.Requests.TotalErrors),
		zap.Duration("permit_wait_time", result.Requests.PermitWaitTime),
	)
	return result
}
