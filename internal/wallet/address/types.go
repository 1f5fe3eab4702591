package address

import "github.com/ethereum/go-ethereum/common"

// Service derives EVM keys and addresses from an HD seed.
type Service interface {
	DeriveAddress(seed []byte, path string) (common.Address, error)

	// DerivePrivateKey returns the raw 32 byte key. Callers must zero it after use.
	DerivePrivateKey(seed []byte, path string) ([]byte, error)

	// GetBIP44Path returns m/44'/60'/0'/0/{index}.
	GetBIP44Path(index uint32) string
}
