package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeRow struct {
	access, refresh, tokenType string
	expiry                     *time.Time
	err                        error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.access
	*dest[1].(*string) = r.refresh
	*dest[2].(*string) = r.tokenType
	*dest[3].(**time.Time) = r.expiry
	return nil
}

type fakeDB struct {
	row     fakeRow
	execErr error
	sql     []string
	args    [][]any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return f.row
}

func TestPGTokenStore_Load(t *testing.T) {
	ctx := context.Background()
	expiry := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	db := &fakeDB{row: fakeRow{access: "a", refresh: "r", tokenType: "Bearer", expiry: &expiry}}
	tok, err := NewPGTokenStore(db).LoadToken(ctx, PracticeTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, tok.Expiry.Equal(expiry))
	assert.Equal(t, []any{PracticeTokenKey}, db.args[0])

	db = &fakeDB{row: fakeRow{access: "a"}}
	tok, err = NewPGTokenStore(db).LoadToken(ctx, PracticeTokenKey)
	require.NoError(t, err)
	assert.True(t, tok.Expiry.IsZero())

	_, err = NewPGTokenStore(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).LoadToken(ctx, PracticeTokenKey)
	assert.ErrorIs(t, err, ErrNoToken)

	boom := errors.New("connection reset")
	_, err = NewPGTokenStore(&fakeDB{row: fakeRow{err: boom}}).LoadToken(ctx, PracticeTokenKey)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestPGTokenStore_Save(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{}
	store := NewPGTokenStore(db)

	require.NoError(t, store.Migrate(ctx))
	assert.Contains(t, db.sql[0], "CREATE TABLE IF NOT EXISTS oauth_tokens")

	expiry := time.Date(2026, 10, 19, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{
		AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: expiry,
	}))
	assert.Contains(t, db.sql[1], "ON CONFLICT (key) DO UPDATE")
	args := db.args[1]
	require.Len(t, args, 6)
	assert.Equal(t, PracticeTokenKey, args[0])
	assert.Equal(t, "a", args[1])
	saved := args[4].(*time.Time)
	require.NotNil(t, saved)
	assert.Equal(t, time.UTC, saved.Location())
	assert.True(t, saved.Equal(expiry))

	require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{AccessToken: "b"}))
	assert.Nil(t, db.args[2][4].(*time.Time))

	db.execErr = errors.New("read-only transaction")
	assert.Error(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{AccessToken: "c"}))
}

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	_, err := store.LoadToken(ctx, PracticeTokenKey)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.SaveToken(ctx, PracticeTokenKey, &oauth2.Token{AccessToken: "b"}))

	tok, err := store.LoadToken(ctx, PracticeTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "b", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken, "refresh token survives a save without one")

	tok.AccessToken = "mutated"
	again, _ := store.LoadToken(ctx, PracticeTokenKey)
	assert.Equal(t, "b", again.AccessToken)
}
