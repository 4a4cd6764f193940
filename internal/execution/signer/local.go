package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	EnvPrivateKey           = "CRONA_PRIVATE_KEY"
	EnvPrivateKeyFile       = "CRONA_PRIVATE_KEY_FILE"
	EnvKeystorePath         = "CRONA_KEYSTORE_PATH"
	EnvKeystorePassword     = "CRONA_KEYSTORE_PASSWORD"
	EnvKeystorePasswordFile = "CRONA_KEYSTORE_PASSWORD_FILE"

	KeySourceAuto     = "auto"
	KeySourceEnv      = "env"
	KeySourceFile     = "file"
	KeySourceKeystore = "keystore"

	defaultPrivateKeyRelativePath = "crona/key.hex"
	defaultPrivateKeyHintPath     = "~/.config/crona/key.hex"
)

var errNoKey = errors.New("no key material")

type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	if s == nil || s.privateKey == nil {
		return nil, errors.New("local signer is not initialized")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.privateKey)
}

// LocalSignerConfig lists where a key may come from. The first populated
// location wins: hex, then key file, then keystore.
type LocalSignerConfig struct {
	PrivateKeyHex        string
	PrivateKeyFile       string
	KeystorePath         string
	KeystorePassword     string
	KeystorePasswordFile string
}

func configFromEnv() LocalSignerConfig {
	cfg := LocalSignerConfig{
		PrivateKeyHex:        strings.TrimSpace(os.Getenv(EnvPrivateKey)),
		PrivateKeyFile:       strings.TrimSpace(os.Getenv(EnvPrivateKeyFile)),
		KeystorePath:         strings.TrimSpace(os.Getenv(EnvKeystorePath)),
		KeystorePassword:     strings.TrimSpace(os.Getenv(EnvKeystorePassword)),
		KeystorePasswordFile: strings.TrimSpace(os.Getenv(EnvKeystorePasswordFile)),
	}
	if cfg.PrivateKeyFile == "" {
		cfg.PrivateKeyFile = discoverDefaultPrivateKeyFile()
	}
	return cfg
}

// restrict keeps only the locations that belong to source.
func (c LocalSignerConfig) restrict(source string) (LocalSignerConfig, error) {
	switch source {
	case KeySourceAuto:
		return c, nil
	case KeySourceEnv:
		return LocalSignerConfig{PrivateKeyHex: c.PrivateKeyHex}, nil
	case KeySourceFile:
		return LocalSignerConfig{PrivateKeyFile: c.PrivateKeyFile}, nil
	case KeySourceKeystore:
		return LocalSignerConfig{
			KeystorePath:         c.KeystorePath,
			KeystorePassword:     c.KeystorePassword,
			KeystorePasswordFile: c.KeystorePasswordFile,
		}, nil
	default:
		return LocalSignerConfig{}, fmt.Errorf("unsupported key source %q (expected %s|%s|%s|%s)", source, KeySourceAuto, KeySourceEnv, KeySourceFile, KeySourceKeystore)
	}
}

// NewLocalSignerFromInputs resolves the key for --key-source. A non-empty
// privateKeyOverride (--private-key) replaces every other location.
func NewLocalSignerFromInputs(source, privateKeyOverride string) (*LocalSigner, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = KeySourceAuto
	}
	cfg, err := configFromEnv().restrict(source)
	if err != nil {
		return nil, err
	}
	if override := strings.TrimSpace(privateKeyOverride); override != "" {
		cfg = LocalSignerConfig{PrivateKeyHex: override}
	}
	return NewLocalSigner(cfg)
}

func NewLocalSigner(cfg LocalSignerConfig) (*LocalSigner, error) {
	pk, err := loadPrivateKey(cfg)
	if errors.Is(err, errNoKey) {
		return nil, fmt.Errorf("missing signing key: pass --private-key, set %s, %s or %s, or save a hex key at %s", EnvPrivateKey, EnvPrivateKeyFile, EnvKeystorePath, defaultPrivateKeyHintPath)
	}
	if err != nil {
		return nil, err
	}
	return &LocalSigner{privateKey: pk, address: crypto.PubkeyToAddress(pk.PublicKey)}, nil
}

func loadPrivateKey(cfg LocalSignerConfig) (*ecdsa.PrivateKey, error) {
	switch {
	case strings.TrimSpace(cfg.PrivateKeyHex) != "":
		return parseHexKey(cfg.PrivateKeyHex)
	case strings.TrimSpace(cfg.PrivateKeyFile) != "":
		buf, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		return parseHexKey(string(buf))
	case strings.TrimSpace(cfg.KeystorePath) != "":
		return decryptKeystore(cfg)
	default:
		return nil, errNoKey
	}
}

func decryptKeystore(cfg LocalSignerConfig) (*ecdsa.PrivateKey, error) {
	password := cfg.KeystorePassword
	if strings.TrimSpace(password) == "" && strings.TrimSpace(cfg.KeystorePasswordFile) != "" {
		buf, err := os.ReadFile(cfg.KeystorePasswordFile)
		if err != nil {
			return nil, fmt.Errorf("read keystore password file: %w", err)
		}
		password = strings.TrimSpace(string(buf))
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("keystore password is required (%s or %s)", EnvKeystorePassword, EnvKeystorePasswordFile)
	}
	buf, err := os.ReadFile(cfg.KeystorePath)
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(buf, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return key.PrivateKey, nil
}

func parseHexKey(raw string) (*ecdsa.PrivateKey, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if clean == "" {
		return nil, errors.New("empty private key")
	}
	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return pk, nil
}

func defaultPrivateKeyPath() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, defaultPrivateKeyRelativePath)
}

// discoverDefaultPrivateKeyFile returns the default key path when a file
// exists there.
func discoverDefaultPrivateKeyFile() string {
	path := defaultPrivateKeyPath()
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	return path
}
