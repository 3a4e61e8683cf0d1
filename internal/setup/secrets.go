// Package setup runs the one-time Google authorization that produces the
// stored credential.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoClientSecrets is returned when the client secrets file is missing.
var ErrNoClientSecrets = errors.New("client secrets file not found")

// ClientSecrets identifies the OAuth client registered in Google Cloud.
type ClientSecrets struct {
	ClientID     string
	ClientSecret string
}

func (s ClientSecrets) Valid() bool {
	return strings.TrimSpace(s.ClientID) != "" && strings.TrimSpace(s.ClientSecret) != ""
}

type clientBlock struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

// secretsFile is the JSON downloaded from the Google Cloud console. Web
// and desktop clients use different top-level keys.
type secretsFile struct {
	Web       *clientBlock `json:"web"`
	Installed *clientBlock `json:"installed"`
}

// LoadClientSecrets reads a console client secrets file.
func LoadClientSecrets(path string) (ClientSecrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ClientSecrets{}, fmt.Errorf("%w: %s", ErrNoClientSecrets, path)
		}
		return ClientSecrets{}, fmt.Errorf("failed to read client secrets: %w", err)
	}

	var f secretsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return ClientSecrets{}, fmt.Errorf("invalid client secrets file %s: %w", path, err)
	}

	block := f.Web
	if block == nil {
		block = f.Installed
	}
	if block == nil {
		return ClientSecrets{}, fmt.Errorf("invalid client secrets file %s: expected a \"web\" or \"installed\" client", path)
	}

	s := ClientSecrets{ClientID: strings.TrimSpace(block.ClientID), ClientSecret: strings.TrimSpace(block.ClientSecret)}
	if !s.Valid() {
		return ClientSecrets{}, fmt.Errorf("invalid client secrets file %s: client_id and client_secret are required", path)
	}
	return s, nil
}
