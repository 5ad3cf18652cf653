// tokencache/cache.go
/* Package tokencache persists the handshake token between runs and decides
whether a cached token may still be used. A lifetime of zero or less is a
sentinel that forces the token invalid; reading such a record rewrites the
cache with the token and date removed. */
package tokencache

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-noclist-client/clientstate"
	"github.com/deploymenttheory/go-noclist-client/internal/filestore"
	"github.com/deploymenttheory/go-noclist-client/logger"
	"go.uber.org/zap"
)

var (
	// ErrMissingExpiry marks a record whose expires field is absent or not numeric.
	ErrMissingExpiry = errors.New("token record has no numeric expiry")
	// ErrInvalidGenerated marks a record whose generated field is not a date.
	ErrInvalidGenerated = errors.New("token record has an unparseable generation date")
	// ErrCacheUnavailable marks a missing, unreadable or malformed cache file.
	ErrCacheUnavailable = errors.New("token cache unavailable")
)

// Cache reads and writes the token record at a fixed path.
type Cache struct {
	store  *filestore.Store
	path   string
	state  *clientstate.State
	log    logger.Logger
	errLog *logger.ErrorLog

	// Now is the clock used for expiry checks.
	Now func() time.Time
}

// New returns a Cache for path. state receives the token on Save and the
// local flag on failures.
func New(store *filestore.Store, path string, state *clientstate.State, log logger.Logger, errLog *logger.ErrorLog) *Cache {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Cache{
		store:  store,
		path:   path,
		state:  state,
		log:    log,
		errLog: errLog,
		Now:    time.Now,
	}
}

// Load reads the cached record. A missing, unreadable or malformed file
// raises the local flag and yields nil.
func (c *Cache) Load() *Token {
	if !c.store.Exists(c.path) {
		c.localError(ErrCacheUnavailable, zap.String("reason", "missing"))
		return nil
	}
	data := c.store.Read(c.path)
	if data == nil {
		c.localError(ErrCacheUnavailable, zap.String("reason", "unreadable"))
		return nil
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		c.localError(fmt.Errorf("%w: %w", ErrCacheUnavailable, err), zap.String("reason", "malformed"))
		return nil
	}

	c.log.Debug("Loaded cached token", zap.Bool("has_value", token.Value != ""), zap.String("generated", token.Generated))
	return &token
}

// IsValid reports whether token may be used now: it must carry a value and
// now must not be past generated + expires. A lifetime of zero or less
// rewrites the cache as {null, expires, null} and is never valid.
func (c *Cache) IsValid(token Token) bool {
	expires, ok := token.ExpiresAfter()
	if !ok {
		c.localError(ErrMissingExpiry)
		return false
	}

	if expires <= 0 {
		c.log.Debug("Cached token carries the forced-expiry sentinel", zap.Int("expires", expires))
		c.Save(NewToken("", expires, ""))
		return false
	}

	// whole UTC seconds, like the HTTP date in generated
	now := c.Now().UTC().Truncate(time.Second)
	generated := now
	if token.Generated != "" {
		parsed, err := parseGenerated(token.Generated)
		if err != nil {
			c.localError(fmt.Errorf("%w: %w", ErrInvalidGenerated, err), zap.String("generated", token.Generated))
			return false
		}
		generated = parsed
	}

	// compared in seconds so that very long lifetimes cannot overflow a Duration
	if age := now.Unix() - generated.Unix(); age > int64(expires) {
		c.log.Debug("Cached token expired", zap.Int64("age_seconds", age), zap.Int("expires", expires))
		return false
	}
	return token.Value != ""
}

// Save persists token and makes its value the run's current token. It
// returns the number of bytes written and false when the write failed.
func (c *Cache) Save(token Token) (int, bool) {
	c.state.AuthToken = token.Value

	data, err := json.Marshal(token)
	if err != nil {
		c.localError(err)
		return 0, false
	}

	n, ok := c.store.Write(c.path, data)
	if !ok {
		c.localError(errors.New("failed to write token cache"))
		return 0, false
	}

	c.log.Debug("Saved token", zap.String("path", c.path), zap.Int("bytes", n), zap.Bool("has_value", token.Value != ""))
	return n, true
}

// Cached loads the record and, if valid, adopts its value as the run's token.
func (c *Cache) Cached() (string, bool) {
	token := c.Load()
	if token == nil || !c.IsValid(*token) {
		return "", false
	}
	c.state.AuthToken = token.Value
	return token.Value, true
}

func (c *Cache) localError(err error, fields ...zap.Field) {
	c.state.Flags.SetLocal()
	fields = append(fields, zap.String("path", c.path))
	c.log.Warn("Token cache error", append(fields, zap.Error(err))...)
	c.errLog.Log(err, logger.LayerLocal, fields...)
}

// parseGenerated accepts the HTTP date formats and RFC 3339.
func parseGenerated(value string) (time.Time, error) {
	if t, err := http.ParseTime(value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
