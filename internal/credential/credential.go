// Package credential persists and refreshes the Google OAuth credential
// the server uses to call the Tag Manager API.
package credential

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned by a Store when no credential has been saved yet.
var ErrNotFound = errors.New("credential not found")

// Credential is the OAuth client and token material. ExpiryDate is epoch
// milliseconds, matching the file written by the authorization command.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	ExpiryDate   *int64 `json:"expiry_date,omitempty"`
}

// Identity is the Google user the credential was issued to.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// File is the persisted document.
type File struct {
	Credentials Credential `json:"credentials"`
	User        Identity   `json:"user"`
}

// Store loads and saves the credential document.
type Store interface {
	Load(ctx context.Context) (*File, error)
	Save(ctx context.Context, file *File) error
}

// Expiry returns the access token expiry, if one is recorded.
func (c Credential) Expiry() (time.Time, bool) {
	if c.ExpiryDate == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*c.ExpiryDate), true
}

// WithToken returns a copy of c with a new access token and expiry. The
// two fields are only ever replaced together.
func (c Credential) WithToken(accessToken string, expiry time.Time) Credential {
	next := c
	next.AccessToken = accessToken
	ms := expiry.UnixMilli()
	next.ExpiryDate = &ms
	return next
}

// IsExpired reports whether c has a recorded expiry strictly before now.
// A credential without an expiry is never considered expired.
func IsExpired(c Credential, now time.Time) bool {
	expiry, ok := c.Expiry()
	if !ok {
		return false
	}
	return expiry.Before(now)
}

// FromToken builds a credential from a freshly exchanged token.
func FromToken(clientID, clientSecret string, tok *oauth2.Token) Credential {
	c := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	if !tok.Expiry.IsZero() {
		ms := tok.Expiry.UnixMilli()
		c.ExpiryDate = &ms
	}
	return c
}
