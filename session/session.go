package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"gym-console/gym"
)

// TokenKey is the fixed storage key the token is persisted under.
const TokenKey = "auth.token"

// Storage is durable key/value storage that survives restarts.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session is the console's authentication state. The token is persisted;
// the user profile lives in memory only and must be fetched again after a
// restart. Safe for concurrent use.
type Session struct {
	storage Storage
	sealer  *Sealer
	log     zerolog.Logger

	mu    sync.RWMutex
	token string
	user  *gym.User
}

// Option customizes a Session.
type Option func(*Session)

// WithSealer encrypts the persisted token at rest.
func WithSealer(s *Sealer) Option {
	return func(ss *Session) { ss.sealer = s }
}

// WithLogger sets the session's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ss *Session) { ss.log = l }
}

// New returns an empty session over storage. Call Initialize to restore a
// persisted token.
func New(storage Storage, opts ...Option) *Session {
	s := &Session{storage: storage, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the persisted token, if any. The user always starts
// empty.
func (s *Session) Initialize() error {
	stored, ok, err := s.storage.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("read persisted token: %w", err)
	}

	token := ""
	if ok {
		token = stored
		if s.sealer != nil {
			token, err = s.sealer.Open(stored)
			if err != nil {
				// Sealed with another key: unusable, forget it.
				s.log.Warn().Err(err).Msg("discarding persisted token")
				token = ""
				if err := s.storage.Delete(TokenKey); err != nil {
					return fmt.Errorf("delete unreadable token: %w", err)
				}
			}
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()
	return nil
}

// SetAuth stores token and user and persists the token.
func (s *Session) SetAuth(token string, user gym.User) error {
	if token == "" {
		return errors.New("empty token")
	}
	stored := token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		stored = sealed
	}
	if err := s.storage.Set(TokenKey, stored); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// ClearAuth forgets token and user, in memory and in storage.
func (s *Session) ClearAuth() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Delete(TokenKey); err != nil {
		return fmt.Errorf("delete persisted token: %w", err)
	}
	return nil
}

// SetUser records the profile after an identity fetch.
func (s *Session) SetUser(user gym.User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

// Token returns the current token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the profile snapshot; ok is false until login or an
// identity fetch has set it.
func (s *Session) User() (gym.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return gym.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool { return s.Token() != "" }

// Claims is what the console can read from a JWT token without the
// server's key.
type Claims struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Claims decodes the token payload without verifying its signature; the
// server stays the authority. ok is false for opaque or missing tokens.
func (s *Session) Claims() (Claims, bool) {
	token := s.Token()
	if token == "" {
		return Claims{}, false
	}
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, false
	}
	c := Claims{UserID: tc.UserID, Role: tc.Role}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, true
}
