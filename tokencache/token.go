// tokencache/token.go
package tokencache

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Token is the persisted handshake result. The on-disk form is
//
//	{"token": string|null, "expires": int, "generated": string|null}
//
// where generated is the HTTP date the server issued the token at.
type Token struct {
	Value     string // empty when the handshake produced no token
	Expires   *int   // lifetime in seconds; nil when missing or not numeric
	Generated string // HTTP date; empty means the token is judged against the current time
}

// NewToken builds a Token with a known lifetime.
func NewToken(value string, expires int, generated string) Token {
	return Token{Value: value, Expires: &expires, Generated: generated}
}

// ExpiresAfter returns the lifetime in seconds and whether it is known.
func (t Token) ExpiresAfter() (int, bool) {
	if t.Expires == nil {
		return 0, false
	}
	return *t.Expires, true
}

type tokenRecord struct {
	Token     *string         `json:"token"`
	Expires   json.RawMessage `json:"expires"`
	Generated *string         `json:"generated"`
}

// MarshalJSON writes empty strings as null.
func (t Token) MarshalJSON() ([]byte, error) {
	expires := json.RawMessage("null")
	if t.Expires != nil {
		expires = json.RawMessage(strconv.Itoa(*t.Expires))
	}
	return json.Marshal(tokenRecord{
		Token:     nullable(t.Value),
		Expires:   expires,
		Generated: nullable(t.Generated),
	})
}

// UnmarshalJSON accepts expires as a JSON number or a numeric string. Any
// other value leaves Expires nil.
func (t *Token) UnmarshalJSON(data []byte) error {
	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*t = Token{Expires: parseExpires(rec.Expires)}
	if rec.Token != nil {
		t.Value = *rec.Token
	}
	if rec.Generated != nil {
		t.Generated = *rec.Generated
	}
	return nil
}

func parseExpires(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return integral(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil
	}
	return integral(number)
}

// integral truncates toward zero the way a base-10 integer parse of "3600.5"
// would. Values beyond the int range are clamped.
func integral(f float64) *int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	var v int
	switch {
	case f >= math.MaxInt:
		v = math.MaxInt
	case f <= math.MinInt:
		v = math.MinInt
	default:
		v = int(f)
	}
	return &v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
