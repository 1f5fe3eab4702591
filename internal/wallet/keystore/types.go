package keystore

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrKeystoreExists   = errors.New("keystore already exists")
	ErrKeystoreNotFound = errors.New("keystore not found")
	ErrInvalidPassword  = errors.New("invalid password: MAC mismatch")
)

// Keystore is an encrypted mnemonic loaded from disk.
type Keystore struct {
	Path string
	JSON *KeystoreJSON
}

// VerificationAddress is the index-0 address recorded when the keystore was created.
func (k *Keystore) VerificationAddress() common.Address {
	return common.HexToAddress(k.JSON.Address)
}

// KeystoreJSON is the Ethereum keystore v3 layout with the mnemonic as payload.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int // Derived key length (32 bytes)
	N     int // CPU/memory cost parameter
	R     int // Block size parameter
	P     int // Parallelization parameter
}

// DefaultScryptParams returns the "standard" scrypt parameters of Ethereum keystore v3.
func DefaultScryptParams() *ScryptParams {
	const (
		scryptDKLen = 32
		scryptN     = 262144 // 2^18
		scryptR     = 8
		scryptP     = 1
	)

	return &ScryptParams{
		DKLen: scryptDKLen,
		N:     scryptN,
		R:     scryptR,
		P:     scryptP,
	}
}

// LightScryptParams trades strength for speed, for development keystores and tests.
func LightScryptParams() *ScryptParams {
	const (
		scryptDKLen = 32
		scryptN     = 4096 // 2^12
		scryptR     = 8
		scryptP     = 6
	)

	return &ScryptParams{
		DKLen: scryptDKLen,
		N:     scryptN,
		R:     scryptR,
		P:     scryptP,
	}
}
