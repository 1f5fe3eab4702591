package seed

// Manager keeps the HD seed in memory once the keystore is unlocked.
type Manager interface {
	// Initialize derives the seed from mnemonic and the optional BIP39 passphrase.
	Initialize(mnemonic string, passphrase string) error

	// GetSeed returns a copy of the seed, or nil before Initialize.
	GetSeed() []byte

	IsInitialized() bool

	// Clear zeroes the seed.
	Clear()
}
