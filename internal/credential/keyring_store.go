package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	DefaultKeyringService = "gtm-mcp"
	keyringUser           = "credentials"
	keyringProbeUser      = "gtm-mcp-keyring-test"
)

// KeyringStore keeps the credential document in the system keyring.
// On headless systems without a keyring it falls back to Fallback.
type KeyringStore struct {
	Service  string
	Fallback Store

	once     sync.Once
	fallback bool
}

// NewKeyringStore returns a keyring store for service that degrades to
// fallback when no keyring is reachable.
func NewKeyringStore(service string, fallback Store) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{Service: service, Fallback: fallback}
}

// useFallback probes the keyring once with a throwaway entry.
func (s *KeyringStore) useFallback() bool {
	s.once.Do(func() {
		if err := keyring.Set(s.Service, keyringProbeUser, "test"); err != nil {
			log.Warn().Err(err).Msg("system keyring unavailable, using file-based credential storage")
			s.fallback = s.Fallback != nil
			return
		}
		_ = keyring.Delete(s.Service, keyringProbeUser)
	})
	return s.fallback
}

func (s *KeyringStore) Load(ctx context.Context) (*File, error) {
	if s.useFallback() {
		return s.Fallback.Load(ctx)
	}

	encoded, err := keyring.Get(s.Service, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential from keyring: %w", err)
	}

	var file File
	if err := json.Unmarshal([]byte(encoded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse keyring credential: %w", err)
	}
	return &file, nil
}

func (s *KeyringStore) Save(ctx context.Context, file *File) error {
	if file == nil {
		return errors.New("credential file is required")
	}
	if s.useFallback() {
		return s.Fallback.Save(ctx, file)
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := keyring.Set(s.Service, keyringUser, string(data)); err != nil {
		return fmt.Errorf("failed to store credential in keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) String() string {
	if s.useFallback() {
		return "file-based (keyring unavailable)"
	}
	return "system-keyring (" + s.Service + ")"
}
