package address

import (
	"crypto/ecdsa"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

func (s *service) DeriveAddress(seed []byte, path string) (common.Address, error) {
	privateKey, err := s.DerivePrivateKey(seed, path)
	if err != nil {
		return common.Address{}, err
	}

	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	ecdsaPrivateKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to convert to ECDSA private key")
	}

	publicKeyECDSA, ok := ecdsaPrivateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, errors.New("failed to cast public key to ECDSA")
	}

	return crypto.PubkeyToAddress(*publicKeyECDSA), nil
}

func (s *service) DerivePrivateKey(seed []byte, path string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, errors.New("seed is empty")
	}

	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key.Key, nil
}

// ParsePath parses a derivation path such as "m/44'/60'/0'/0/0" into child
// indices, hardened segments offset by bip32.FirstHardenedChild.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, errors.Errorf("invalid derivation path: %q", path)
	}

	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}

		index, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.Errorf("invalid path segment %q in %q", part, path)
		}

		child := uint32(index)
		if hardened {
			child += bip32.FirstHardenedChild
		}

		indices = append(indices, child)
	}

	return indices, nil
}
