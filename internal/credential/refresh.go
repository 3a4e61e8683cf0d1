package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultTokenLifetime is assumed when the token endpoint omits expires_in.
const DefaultTokenLifetime = time.Hour

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, c Credential) (Credential, error)
}

// OAuthRefresher refreshes against Google's OAuth token endpoint.
type OAuthRefresher struct {
	Endpoint   oauth2.Endpoint
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewOAuthRefresher returns a refresher for Google's token endpoint.
// A non-empty tokenURL replaces the endpoint's token URL.
func NewOAuthRefresher(tokenURL string, httpClient *http.Client) *OAuthRefresher {
	endpoint := google.Endpoint
	if tokenURL != "" {
		endpoint.TokenURL = tokenURL
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	return &OAuthRefresher{
		Endpoint:   endpoint,
		HTTPClient: httpClient,
		Now:        time.Now,
	}
}

// Refresh returns a copy of c with a new access token and expiry. c is
// never modified, so a failed refresh leaves the caller's credential as
// it was.
func (r *OAuthRefresher) Refresh(ctx context.Context, c Credential) (Credential, error) {
	if strings.TrimSpace(c.RefreshToken) == "" {
		return c, errors.New("credential has no refresh token")
	}

	if r.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.HTTPClient)
	}

	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     r.Endpoint,
	}
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}).Token()
	if err != nil {
		return c, fmt.Errorf("failed to refresh access token: %w", err)
	}
	if tok.AccessToken == "" {
		return c, errors.New("token endpoint returned no access token")
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = r.now().Add(DefaultTokenLifetime)
	}

	next := c.WithToken(tok.AccessToken, expiry)
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	return next, nil
}

func (r *OAuthRefresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
