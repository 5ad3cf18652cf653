// clientstate/state.go
/* Package clientstate holds the single mutable state of a client run: the
current token, the attempt budget of the phase in progress, the sticky error
flags and the listing produced by a successful run. One State is created per
run and passed by pointer to every component that needs it. */
package clientstate

import (
	"go.uber.org/zap/zapcore"
)

// ErrorFlags are the four independent failure classes of a run.
// Flags are only ever raised; nothing clears them within a run.
type ErrorFlags struct {
	Local      bool // cache/file read or parse failure, timestamp parse failure
	Remote     bool // network failure, rejected handshake or listing response
	EmptyBody  bool // no non-empty listing produced
	EmptyToken bool // no usable token after negotiation
}

// Bit weights of the combined exit status, most significant first.
const (
	RemoteBit     = 1 << 3
	LocalBit      = 1 << 2
	EmptyBodyBit  = 1 << 1
	EmptyTokenBit = 1 << 0
)

func (f *ErrorFlags) SetLocal()      { f.Local = true }
func (f *ErrorFlags) SetRemote()     { f.Remote = true }
func (f *ErrorFlags) SetEmptyBody()  { f.EmptyBody = true }
func (f *ErrorFlags) SetEmptyToken() { f.EmptyToken = true }

// ExitStatus combines the flags into remote*8 + local*4 + emptyBody*2 + emptyToken.
func (f ErrorFlags) ExitStatus() int {
	status := 0
	if f.Remote {
		status |= RemoteBit
	}
	if f.Local {
		status |= LocalBit
	}
	if f.EmptyBody {
		status |= EmptyBodyBit
	}
	if f.EmptyToken {
		status |= EmptyTokenBit
	}
	return status
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (f ErrorFlags) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("local", f.Local)
	enc.AddBool("remote", f.Remote)
	enc.AddBool("empty_body", f.EmptyBody)
	enc.AddBool("empty_token", f.EmptyToken)
	enc.AddInt("exit_status", f.ExitStatus())
	return nil
}

// State is the process-scoped client state. It is not persisted.
type State struct {
	AuthToken         string
	RemainingAttempts int
	Flags             ErrorFlags
	Listing           []string
}

// New returns an empty State.
func New() *State {
	return &State{}
}

// HasToken reports whether a token is currently held.
func (s *State) HasToken() bool {
	return s.AuthToken != ""
}

// HasListing reports whether a non-empty listing was produced.
func (s *State) HasListing() bool {
	return len(s.Listing) > 0
}

// MarshalLogObject implements zapcore.ObjectMarshaler. The token itself is
// never written, only whether one is held.
func (s *State) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("has_token", s.HasToken())
	enc.AddInt("remaining_attempts", s.RemainingAttempts)
	enc.AddInt("listing_size", len(s.Listing))
	return enc.AddObject("flags", s.Flags)
}
