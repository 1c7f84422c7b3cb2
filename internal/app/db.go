package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/oauth2"
)

// PracticeTokenKey is the single key the practice's Google token is stored
// under.
const PracticeTokenKey = "practice"

// ErrNoToken is returned by a TokenStore that holds nothing for the key.
var ErrNoToken = errors.New("no oauth token stored")

// TokenStore persists OAuth tokens.
type TokenStore interface {
	LoadToken(ctx context.Context, key string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, key string, tok *oauth2.Token) error
}

// dbtx is the subset of *pgxpool.Pool the token store uses.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGTokenStore keeps tokens in the oauth_tokens table.
type PGTokenStore struct {
	DB dbtx
}

func NewPGTokenStore(db dbtx) *PGTokenStore {
	return &PGTokenStore{DB: db}
}

// Migrate creates the oauth_tokens table when missing.
func (s *PGTokenStore) Migrate(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS oauth_tokens (
	        key           TEXT PRIMARY KEY,
	        access_token  TEXT NOT NULL,
	        refresh_token TEXT NOT NULL DEFAULT '',
	        token_type    TEXT NOT NULL DEFAULT '',
	        expiry        TIMESTAMPTZ,
	        updated_at    TIMESTAMPTZ NOT NULL
	      )`
	if _, err := s.DB.Exec(ctx, q); err != nil {
		return fmt.Errorf("create oauth_tokens: %w", err)
	}
	return nil
}

func (s *PGTokenStore) LoadToken(ctx context.Context, key string) (*oauth2.Token, error) {
	q := `SELECT access_token, refresh_token, token_type, expiry FROM oauth_tokens WHERE key=$1`

	var (
		tok    oauth2.Token
		expiry *time.Time
	)
	err := s.DB.QueryRow(ctx, q, key).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}
	if expiry != nil {
		tok.Expiry = *expiry
	}
	return &tok, nil
}

// SaveToken upserts tok. An empty refresh token keeps the stored one, since
// Google only returns it on the first consent.
func (s *PGTokenStore) SaveToken(ctx context.Context, key string, tok *oauth2.Token) error {
	q := `INSERT INTO oauth_tokens (key, access_token, refresh_token, token_type, expiry, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6)
	      ON CONFLICT (key) DO UPDATE SET
	        access_token  = EXCLUDED.access_token,
	        refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), oauth_tokens.refresh_token),
	        token_type    = EXCLUDED.token_type,
	        expiry        = EXCLUDED.expiry,
	        updated_at    = EXCLUDED.updated_at`

	var expiry *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry.UTC()
		expiry = &e
	}
	if _, err := s.DB.Exec(ctx, q, key, tok.AccessToken, tok.RefreshToken, tok.TokenType, expiry, time.Now().UTC()); err != nil {
		return fmt.Errorf("save oauth token: %w", err)
	}
	return nil
}

// MemoryTokenStore is used when no database is configured. Tokens are lost
// on restart.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]oauth2.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]oauth2.Token)}
}

func (s *MemoryTokenStore) LoadToken(_ context.Context, key string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[key]
	if !ok {
		return nil, ErrNoToken
	}
	return &tok, nil
}

func (s *MemoryTokenStore) SaveToken(_ context.Context, key string, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *tok
	if saved.RefreshToken == "" {
		saved.RefreshToken = s.tokens[key].RefreshToken
	}
	s.tokens[key] = saved
	return nil
}
