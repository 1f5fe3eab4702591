package signer

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/wallet/address"
	"github/chapool/go-txrelay/internal/wallet/seed"
)

type service struct {
	seedManager    seed.Manager
	addressService address.Service
}

// NewService creates a new SignerService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(seedManager seed.Manager, addressService address.Service) Service {
	return &service{
		seedManager:    seedManager,
		addressService: addressService,
	}
}

// withKey derives the key for path, checks it controls from and passes it to
// fn. The raw key is zeroed afterwards.
func (s *service) withKey(path string, from common.Address, fn func(key *ecdsa.PrivateKey) error) error {
	seed := s.seedManager.GetSeed()
	if seed == nil {
		return ErrSeedNotInitialized
	}
	defer zero(seed)

	privateKey, err := s.addressService.DerivePrivateKey(seed, path)
	if err != nil {
		return errors.Wrap(err, "failed to derive private key")
	}
	defer zero(privateKey)

	ecdsaPrivateKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return errors.Wrap(err, "failed to convert private key to ECDSA")
	}

	if crypto.PubkeyToAddress(ecdsaPrivateKey.PublicKey) != from {
		return ErrAddressMismatch
	}

	return fn(ecdsaPrivateKey)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
