package credential

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func ms(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry *int64
		want   bool
	}{
		{"no expiry", nil, false},
		{"past", ms(now.Add(-time.Minute)), true},
		{"future", ms(now.Add(time.Minute)), false},
		{"exactly now", ms(now), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Credential{AccessToken: "a", ExpiryDate: tt.expiry}
			assert.Equal(t, tt.want, IsExpired(c, now))
		})
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "gtm-config.json"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gtm-config.json")
	store := NewFileStore(path)

	file := &File{
		Credentials: Credential{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ClientID:     "client",
			ClientSecret: "secret",
			ExpiryDate:   ms(time.UnixMilli(1760000000000)),
		},
		User: Identity{UserID: "42", Name: "Ada", Email: "ada@example.com"},
	}
	require.NoError(t, store.Save(context.Background(), file))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, file, loaded)
}

func TestFileStore_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtm-config.json")
	raw := `{
  "credentials": {
    "access_token": "ya29.a",
    "refresh_token": "1//r",
    "client_id": "id.apps.googleusercontent.com",
    "client_secret": "s",
    "expiry_date": 1760000000000
  },
  "user": {"userId": "1", "name": "Ada", "email": "ada@example.com"}
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0600))

	file, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1//r", file.Credentials.RefreshToken)
	require.NotNil(t, file.Credentials.ExpiryDate)
	assert.Equal(t, int64(1760000000000), *file.Credentials.ExpiryDate)
	assert.Equal(t, "ada@example.com", file.User.Email)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtm-config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestKeyringStore_SaveAndLoad(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("gtm-mcp-test", NewFileStore(filepath.Join(t.TempDir(), "unused.json")))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	file := &File{Credentials: Credential{AccessToken: "a", RefreshToken: "r"}}
	require.NoError(t, store.Save(context.Background(), file))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Credentials.AccessToken)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "x.json", "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = NewStore(BackendKeyring, "x.json", "")
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, s)

	_, err = NewStore("vault", "x.json", "")
	assert.Error(t, err)
}

func tokenServer(t *testing.T, status int, body map[string]any) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "R", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestOAuthRefresher_Success(t *testing.T) {
	srv, calls := tokenServer(t, http.StatusOK, map[string]any{
		"access_token": "new-access",
		"token_type":   "Bearer",
		"expires_in":   3599,
	})
	r := NewOAuthRefresher(srv.URL, srv.Client())

	old := Credential{AccessToken: "old", RefreshToken: "R", ClientID: "client", ClientSecret: "secret", ExpiryDate: ms(time.Now().Add(-time.Hour))}
	next, err := r.Refresh(context.Background(), old)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "new-access", next.AccessToken)
	assert.Equal(t, "R", next.RefreshToken)
	assert.False(t, IsExpired(next, time.Now()))
	assert.Equal(t, "old", old.AccessToken)
}

func TestOAuthRefresher_DefaultsExpiry(t *testing.T) {
	srv, _ := tokenServer(t, http.StatusOK, map[string]any{
		"access_token": "new-access",
		"token_type":   "Bearer",
	})
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	r := NewOAuthRefresher(srv.URL, srv.Client())
	r.Now = func() time.Time { return now }

	next, err := r.Refresh(context.Background(), Credential{RefreshToken: "R", ClientID: "client"})
	require.NoError(t, err)

	expiry, ok := next.Expiry()
	require.True(t, ok)
	assert.Equal(t, now.Add(DefaultTokenLifetime).UnixMilli(), expiry.UnixMilli())
}

func TestOAuthRefresher_Failure(t *testing.T) {
	srv, _ := tokenServer(t, http.StatusBadRequest, map[string]any{
		"error":             "invalid_grant",
		"error_description": "Token has been expired or revoked.",
	})
	r := NewOAuthRefresher(srv.URL, srv.Client())

	old := Credential{AccessToken: "old", RefreshToken: "R", ClientID: "client", ExpiryDate: ms(time.UnixMilli(1))}
	next, err := r.Refresh(context.Background(), old)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Equal(t, old, next)
}

func TestOAuthRefresher_NoRefreshToken(t *testing.T) {
	r := NewOAuthRefresher("http://127.0.0.1:0/token", nil)
	_, err := r.Refresh(context.Background(), Credential{AccessToken: "a"})
	assert.Error(t, err)
}
