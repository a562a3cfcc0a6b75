package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_system/internal/cache"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	mc := cache.NewMemoryCache(cache.DefaultConfig())
	t.Cleanup(func() { mc.Close() })
	return NewSessionStore(DefaultSessionConfig(mc))
}

func TestSessionCreateGetDelete(t *testing.T) {
	store := newTestSessionStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &SessionData{
		UserID:      7,
		Username:    "editor",
		Permissions: []string{PageViewPermission, PageEditPermission},
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	data, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), data.UserID)
	assert.Equal(t, "editor", data.Username)
	assert.Equal(t, []string{PageViewPermission, PageEditPermission}, data.Permissions)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionIDsAreUnique(t *testing.T) {
	store := newTestSessionStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, &SessionData{UserID: 1, Username: "a"})
	require.NoError(t, err)
	second, err := store.Create(ctx, &SessionData{UserID: 1, Username: "a"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestPrincipalFromSession(t *testing.T) {
	store := newTestSessionStore(t)

	id, err := store.Create(context.Background(), &SessionData{
		UserID:      7,
		Username:    "editor",
		Permissions: []string{PageViewPermission},
	})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/about", nil)
	r.AddCookie(&http.Cookie{Name: "content_session", Value: id})

	principal := store.Principal(r)
	assert.True(t, principal.LoggedIn)
	assert.Equal(t, int64(7), principal.ID)
	assert.Equal(t, "editor", principal.Name)
	assert.True(t, principal.Has(PageViewPermission))
	assert.False(t, principal.Has(PageEditPermission))
}

func TestPrincipalWithoutCookie(t *testing.T) {
	store := newTestSessionStore(t)

	r := httptest.NewRequest("GET", "/about", nil)
	principal := store.Principal(r)
	assert.False(t, principal.LoggedIn)
	assert.Equal(t, "guest", principal.Name)
}

func TestPrincipalWithStaleCookie(t *testing.T) {
	store := newTestSessionStore(t)

	r := httptest.NewRequest("GET", "/about", nil)
	r.AddCookie(&http.Cookie{Name: "content_session", Value: "no-such-session"})

	principal := store.Principal(r)
	assert.False(t, principal.LoggedIn)
}
