package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/util"
)

const (
	keystoreDirMode  = 0o700
	keystoreFileMode = 0o600
)

// Service provides keystore encryption and decryption functionality
type Service interface {
	// CreateKeystore encrypts mnemonic and writes it to disk. It never overwrites an existing file.
	CreateKeystore(ctx context.Context, mnemonic string, password string, verification common.Address) (*Keystore, error)

	// DecryptMnemonic decrypts mnemonic from keystore
	DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error)

	// GetKeystore reads the keystore file
	GetKeystore(ctx context.Context) (*Keystore, error)

	// Exists checks if keystore exists
	Exists(ctx context.Context) (bool, error)
}

type service struct {
	path   string
	params *ScryptParams
}

// NewService creates a keystore service backed by a single file at path.
// A nil params selects DefaultScryptParams.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(path string, params *ScryptParams) Service {
	if params == nil {
		params = DefaultScryptParams()
	}

	return &service{
		path:   path,
		params: params,
	}
}

func (s *service) CreateKeystore(ctx context.Context, mnemonic string, password string, verification common.Address) (*Keystore, error) {
	log := util.LogFromContext(ctx)

	keystoreJSON, err := encryptMnemonic(mnemonic, password, verification, s.params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	data, err := json.MarshalIndent(keystoreJSON, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, keystoreDirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create keystore directory %s", dir)
		}
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, keystoreFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrKeystoreExists
		}
		return nil, errors.Wrapf(err, "failed to create keystore file %s", s.path)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(s.path)
		return nil, errors.Wrap(err, "failed to write keystore file")
	}
	if err := file.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close keystore file")
	}

	log.Info().Str("path", s.path).Str("address", keystoreJSON.Address).Msg("Keystore written")

	return &Keystore{Path: s.path, JSON: keystoreJSON}, nil
}

func (s *service) DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error) {
	if keystore == nil || keystore.JSON == nil {
		return "", errors.New("keystore is empty")
	}

	mnemonic, err := decryptMnemonic(keystore.JSON, password)
	if err != nil {
		util.LogFromContext(ctx).Error().Err(err).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

func (s *service) GetKeystore(_ context.Context) (*Keystore, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeystoreNotFound
		}
		return nil, errors.Wrapf(err, "failed to read keystore file %s", s.path)
	}

	var keystoreJSON KeystoreJSON
	if err := json.Unmarshal(data, &keystoreJSON); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}
	if keystoreJSON.Version != keystoreVersion {
		return nil, errors.Errorf("unsupported keystore version %d", keystoreJSON.Version)
	}

	return &Keystore{Path: s.path, JSON: &keystoreJSON}, nil
}

func (s *service) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, errors.Wrapf(err, "failed to stat keystore file %s", s.path)
}
