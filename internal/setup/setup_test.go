package setup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kutbudev/gtm-mcp/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadClientSecrets(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    ClientSecrets
		wantErr bool
	}{
		{"web", `{"web":{"client_id":"id.apps.googleusercontent.com","client_secret":"s","redirect_uris":["http://localhost:3000/callback"]}}`, ClientSecrets{"id.apps.googleusercontent.com", "s"}, false},
		{"installed", `{"installed":{"client_id":"desk","client_secret":"t"}}`, ClientSecrets{"desk", "t"}, false},
		{"neither", `{"other":{}}`, ClientSecrets{}, true},
		{"missing secret", `{"web":{"client_id":"id"}}`, ClientSecrets{}, true},
		{"not json", `client_id=x`, ClientSecrets{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadClientSecrets(writeFile(t, "client_secret.json", tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadClientSecrets_Missing(t *testing.T) {
	_, err := LoadClientSecrets(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrNoClientSecrets)
}

func TestFlow_AuthURL(t *testing.T) {
	f := NewFlow(ClientSecrets{ClientID: "cid", ClientSecret: "sec"}, "localhost:3000", nil)

	u, err := url.Parse(f.AuthURL())
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, f.state, q.Get("state"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/tagmanager.edit.containers")
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/userinfo.email")
}

// googleStub serves the token and userinfo endpoints.
func googleStub(t *testing.T, refreshToken string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.access",
			"refresh_token": refreshToken,
			"token_type":    "Bearer",
			"expires_in":    3599,
		})
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1001","name":"Ada Lovelace","email":"ada@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testFlow(t *testing.T, srv *httptest.Server, store credential.Store) *Flow {
	t.Helper()
	f := NewFlow(ClientSecrets{ClientID: "cid", ClientSecret: "sec"}, "localhost:3000", store)
	f.Config.Endpoint.TokenURL = srv.URL + "/token"
	f.HTTPClient = srv.Client()
	f.UserInfoEndpoint = srv.URL + "/"
	return f
}

func TestFlow_CallbackSavesCredential(t *testing.T) {
	srv := googleStub(t, "1//refresh")
	store := credential.NewFileStore(filepath.Join(t.TempDir(), "gtm-config.json"))
	f := testFlow(t, srv, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/callback?code=the-code&state="+f.state, nil)
	f.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	file, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1001", file.User.UserID)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.access", saved.Credentials.AccessToken)
	assert.Equal(t, "1//refresh", saved.Credentials.RefreshToken)
	assert.Equal(t, "cid", saved.Credentials.ClientID)
	assert.Equal(t, "sec", saved.Credentials.ClientSecret)
	assert.NotNil(t, saved.Credentials.ExpiryDate)
	assert.Equal(t, "ada@example.com", saved.User.Email)
}

func TestFlow_CallbackRejectsBadState(t *testing.T) {
	srv := googleStub(t, "1//refresh")
	store := credential.NewFileStore(filepath.Join(t.TempDir(), "gtm-config.json"))
	f := testFlow(t, srv, store)

	rec := httptest.NewRecorder()
	f.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=the-code&state=forged", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := f.Wait(context.Background())
	assert.ErrorContains(t, err, "state mismatch")

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestFlow_CallbackDenied(t *testing.T) {
	f := NewFlow(ClientSecrets{ClientID: "cid", ClientSecret: "sec"}, "localhost:3000", nil)

	rec := httptest.NewRecorder()
	f.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := f.Wait(context.Background())
	assert.ErrorContains(t, err, "access_denied")
}

func TestFlow_NoRefreshToken(t *testing.T) {
	srv := googleStub(t, "")
	store := credential.NewFileStore(filepath.Join(t.TempDir(), "gtm-config.json"))
	f := testFlow(t, srv, store)

	_, err := f.Complete(context.Background(), "the-code")
	assert.ErrorContains(t, err, "refresh token")
}

func TestFlow_WaitHonoursContext(t *testing.T) {
	f := NewFlow(ClientSecrets{ClientID: "cid", ClientSecret: "sec"}, "localhost:3000", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
