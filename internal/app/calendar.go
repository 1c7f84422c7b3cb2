package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	"physio-booking/internal/booking"
	"physio-booking/internal/config"
)

const oauthStateTTL = 10 * time.Minute

// NewOAuthConfig returns the Google OAuth2 client for the practice account,
// or nil when the client id, secret or redirect URL is missing.
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			gcal.CalendarScope,
			gmail.GmailSendScope,
		},
		Endpoint: google.Endpoint,
	}
}

// StoredTokenProvider serves the practice token from a TokenStore,
// refreshing and re-saving it once it has expired.
type StoredTokenProvider struct {
	Store  TokenStore
	OAuth  *oauth2.Config
	Key    string
	Logger *zap.Logger

	mu sync.Mutex
}

func (p *StoredTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.Key
	if key == "" {
		key = PracticeTokenKey
	}
	tok, err := p.Store.LoadToken(ctx, key)
	if errors.Is(err, ErrNoToken) {
		return nil, booking.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}
	if p.OAuth == nil || tok.RefreshToken == "" {
		return nil, booking.ErrUnauthorized
	}

	fresh, err := p.OAuth.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", booking.ErrUnauthorized, err)
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := p.Store.SaveToken(ctx, key, fresh); err != nil && p.Logger != nil {
			p.Logger.With(zap.Error(err)).Warn("refreshed token not persisted")
		}
	}
	return fresh, nil
}

// stateSigningKey returns the HMAC key for OAuth state values. It is derived
// from the admin JWT secret but never equal to it, so a state value is not
// an admin credential. Without a secret a per-process random key is used and
// pending consents do not survive a restart.
func (a *App) stateSigningKey() []byte {
	a.stateOnce.Do(func() {
		if a.Config != nil && a.Config.AdminJWTSecret != "" {
			a.stateKey = []byte("oauth-state:" + a.Config.AdminJWTSecret)
			return
		}
		a.stateKey = make([]byte, 32)
		_, _ = rand.Read(a.stateKey)
	})
	return a.stateKey
}

func (a *App) newOAuthState() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   PracticeTokenKey,
		Audience:  jwt.ClaimStrings{"oauth2callback"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(oauthStateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.stateSigningKey())
}

func (a *App) verifyOAuthState(state string) error {
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return a.stateSigningKey(), nil
	}, jwt.WithAudience("oauth2callback"), jwt.WithTimeFunc(a.now), jwt.WithLeeway(5*time.Second))
	return err
}

// GET /api/admin/oauth/connect
func (a *App) OAuthConnectHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state, err := a.newOAuthState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{"auth_url": url})
}

// GET /oauth2callback
func (a *App) OAuthCallbackHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	if e := c.Query("error"); e != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization denied: " + e})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	if err := a.verifyOAuthState(c.Query("state")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	ctx := c.Request.Context()
	token, err := a.OAuth.Exchange(ctx, code)
	if err != nil {
		a.logger().With(zap.Error(err)).Warn("oauth code exchange failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	if err := a.Tokens.SaveToken(ctx, PracticeTokenKey, token); err != nil {
		a.logger().With(zap.Error(err)).Error("oauth token not saved")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
		return
	}

	a.logger().Info("google account connected", zap.Time("expiry", token.Expiry))
	c.JSON(http.StatusOK, gin.H{"message": "Authorization successful"})
}
