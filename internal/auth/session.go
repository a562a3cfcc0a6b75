package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"content_system/internal/cache"
)

// Session data cached behind the Cache interface (Redis in production, the
// memory fallback in development). The login UI that creates sessions is a
// separate subsystem; this package only resolves the principal a request
// acts as.

// ErrSessionNotFound is returned when the session id has no record
var ErrSessionNotFound = errors.New("session not found")

// SessionData is the session record stored in the cache
type SessionData struct {
	UserID      int64           `json:"user_id"`
	Username    string          `json:"username"`
	Superuser   bool            `json:"superuser"`
	Permissions []string        `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
	LastSeenAt  time.Time       `json:"last_seen_at"`
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	// Cache backend for session records
	Cache cache.Cache

	// CookieName carries the session id
	// Default: content_session
	CookieName string

	// KeyPrefix namespaces session keys in the cache
	// Default: "session:"
	KeyPrefix string

	// TTL is the session lifetime
	// Default: 24h
	TTL time.Duration

	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger
}

// DefaultSessionConfig returns a default session configuration
func DefaultSessionConfig(c cache.Cache) *SessionConfig {
	return &SessionConfig{
		Cache:      c,
		CookieName: "content_session",
		KeyPrefix:  "session:",
		TTL:        24 * time.Hour,
	}
}

// SessionStore resolves request principals from cached sessions
type SessionStore struct {
	config *SessionConfig
	logger *slog.Logger
}

// NewSessionStore creates a session store over the given cache
func NewSessionStore(config *SessionConfig) *SessionStore {
	if config.CookieName == "" {
		config.CookieName = "content_session"
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "session:"
	}
	if config.TTL == 0 {
		config.TTL = 24 * time.Hour
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionStore{config: config, logger: logger}
}

// Create stores a new session and returns its id
func (s *SessionStore) Create(ctx context.Context, data *SessionData) (string, error) {
	sessionID := uuid.NewString()
	if err := s.save(ctx, sessionID, data); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Get retrieves a session by id
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*SessionData, error) {
	raw, err := s.config.Cache.Get(ctx, s.config.KeyPrefix+sessionID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.config.Cache.Delete(ctx, s.config.KeyPrefix+sessionID)
}

// Principal resolves the principal for an HTTP request. Requests without a
// valid session resolve to the guest principal, never to an error.
func (s *SessionStore) Principal(r *http.Request) Principal {
	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil || cookie.Value == "" {
		return GuestPrincipal()
	}

	data, err := s.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("session lookup failed", "error", err)
		}
		return GuestPrincipal()
	}

	perms := make(map[string]bool, len(data.Permissions))
	for _, p := range data.Permissions {
		perms[p] = true
	}

	return Principal{
		ID:          data.UserID,
		Name:        data.Username,
		LoggedIn:    true,
		Superuser:   data.Superuser,
		Permissions: perms,
	}
}

func (s *SessionStore) save(ctx context.Context, sessionID string, data *SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	if err := s.config.Cache.Set(ctx, s.config.KeyPrefix+sessionID, raw, s.config.TTL); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
