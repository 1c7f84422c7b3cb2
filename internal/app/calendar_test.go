package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"physio-booking/internal/booking"
	"physio-booking/internal/config"
)

// newTokenServer fakes Google's token endpoint. Code exchanges return
// "access-1", refreshes return "access-2"; a refresh token of "revoked"
// fails.
func newTokenServer(t *testing.T) *oauth2.Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`)
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "revoked" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/oauth2callback",
		Scopes:       []string{"calendar"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestNewOAuthConfig(t *testing.T) {
	assert.Nil(t, NewOAuthConfig(&config.Config{GoogleClientID: "id"}))

	cfg := NewOAuthConfig(&config.Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleRedirectURL:  "http://localhost/oauth2callback",
	})
	require.NotNil(t, cfg)
	assert.Len(t, cfg.Scopes, 2)
}

func TestStoredTokenProvider(t *testing.T) {
	ctx := context.Background()
	oauth := newTokenServer(t)

	t.Run("nothing stored", func(t *testing.T) {
		p := &StoredTokenProvider{Store: NewMemoryTokenStore(), OAuth: oauth}
		_, err := p.Token(ctx)
		assert.ErrorIs(t, err, booking.ErrUnauthorized)
	})

	t.Run("valid token", func(t *testing.T) {
		store := NewMemoryTokenStore()
		require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}))
		p := &StoredTokenProvider{Store: store, OAuth: oauth}

		tok, err := p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a", tok.AccessToken)
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		store := NewMemoryTokenStore()
		require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}))
		p := &StoredTokenProvider{Store: store, OAuth: oauth}

		_, err := p.Token(ctx)
		assert.ErrorIs(t, err, booking.ErrUnauthorized)
	})

	t.Run("expired is refreshed and saved", func(t *testing.T) {
		store := NewMemoryTokenStore()
		require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{
			AccessToken: "a", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Hour),
		}))
		p := &StoredTokenProvider{Store: store, OAuth: oauth}

		tok, err := p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "access-2", tok.AccessToken)

		saved, err := store.LoadToken(ctx, PracticeTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "access-2", saved.AccessToken)
		assert.Equal(t, "refresh-1", saved.RefreshToken)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		store := NewMemoryTokenStore()
		require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{
			AccessToken: "a", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour),
		}))
		p := &StoredTokenProvider{Store: store, OAuth: oauth}

		_, err := p.Token(ctx)
		assert.ErrorIs(t, err, booking.ErrUnauthorized)
	})
}

func connectState(t *testing.T, a *App) string {
	t.Helper()
	w := do(t, a.Router(), http.MethodGet, "/api/admin/oauth/connect", nil, "Authorization", "Bearer "+adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := url.Parse(decode[map[string]string](t, w)["auth_url"])
	require.NoError(t, err)
	assert.Equal(t, "offline", u.Query().Get("access_type"))
	assert.Equal(t, "consent", u.Query().Get("prompt"))
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthFlow(t *testing.T) {
	a := newTestApp(t, nil, &recordingMailer{})
	a.OAuth = newTokenServer(t)
	r := a.Router()

	state := connectState(t, a)

	w := do(t, r, http.MethodGet, "/oauth2callback?code=good-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tok, err := a.Tokens.LoadToken(context.Background(), PracticeTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
}

func TestOAuthCallback_Rejections(t *testing.T) {
	a := newTestApp(t, nil, &recordingMailer{})
	a.OAuth = newTokenServer(t)
	r := a.Router()
	state := url.QueryEscape(connectState(t, a))

	tests := []struct {
		name string
		path string
	}{
		{"missing code", "/oauth2callback?state=" + state},
		{"consent denied", "/oauth2callback?error=access_denied&state=" + state},
		{"forged state", "/oauth2callback?code=good-code&state=not-a-jwt"},
		{"bad code", "/oauth2callback?code=bad-code&state=" + state},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, tt.path, nil).Code)
		})
	}

	t.Run("expired state", func(t *testing.T) {
		later := testNow(t).Add(oauthStateTTL + time.Minute)
		a.Now = func() time.Time { return later }
		assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/oauth2callback?code=good-code&state="+state, nil).Code)
	})

	_, err := a.Tokens.LoadToken(context.Background(), PracticeTokenKey)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestOAuthState_NotAnAdminCredential(t *testing.T) {
	a := newTestApp(t, nil, &recordingMailer{})
	a.Config.AdminJWTSecret = "jwt-secret"
	a.OAuth = newTokenServer(t)

	state := connectState(t, a)
	w := do(t, a.Router(), http.MethodGet, "/api/admin/appointments", nil, "Authorization", "Bearer "+state)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOAuth_NotConfigured(t *testing.T) {
	r := newTestApp(t, nil, &recordingMailer{}).Router()

	w := do(t, r, http.MethodGet, "/api/admin/oauth/connect", nil, "Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, r, http.MethodGet, "/oauth2callback?code=x", nil).Code)
}
