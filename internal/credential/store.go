package credential

import "fmt"

const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// NewStore returns the store for backend. The keyring backend falls back
// to the credential file at path when no keyring is available.
func NewStore(backend, path, keyringService string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendKeyring:
		return NewKeyringStore(keyringService, NewFileStore(path)), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (expected %s or %s)", backend, BackendFile, BackendKeyring)
	}
}
