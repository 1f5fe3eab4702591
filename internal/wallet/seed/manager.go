package seed

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

type manager struct {
	seed []byte
	mu   sync.RWMutex
}

// NewManager creates a new seed Manager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

func (m *manager) Initialize(mnemonic string, passphrase string) error {
	// BIP39: PBKDF2(mnemonic, "mnemonic"+passphrase, 2048, 64, SHA512), checksum verified
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return errors.Wrap(ErrInvalidMnemonic, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.seed = seed

	return nil
}

func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)

	return seedCopy
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.seed != nil
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
}

func (m *manager) clearLocked() {
	for i := range m.seed {
		m.seed[i] = 0
	}
	m.seed = nil
}
