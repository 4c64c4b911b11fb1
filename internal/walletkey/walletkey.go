// Package walletkey manages the node's process-lifetime Ed25519
// signing key: load it from a PKCS#8 PEM file if one exists, or
// generate and persist a fresh one on first start.
package walletkey

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ed25519"

	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/primitives"
	"github.com/cinderchain/cinderd/internal/state"
)

var log = logging.Logger(logging.SubsystemWalletKey)

const pemBlockType = "PRIVATE KEY"

// Key is a loaded-or-generated Ed25519 keypair plus its derived
// account address.
type Key struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// Address returns the ICO address: the base64 encoding of the public
// half, matching state.AddressFromPublicKey.
func (k Key) Address() state.Address {
	return state.AddressFromPublicKey(k.Public)
}

// LoadOrGenerate reads a PKCS#8 Ed25519 private key from path, or
// generates one and writes it to path if it does not already exist.
func LoadOrGenerate(path string) (Key, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return decode(data)
	}
	if !os.IsNotExist(err) {
		return Key{}, fmt.Errorf("walletkey: read %s: %w", path, err)
	}

	log.Infof("no key file at %s, generating a new Ed25519 keypair", path)
	pub, priv, err := primitives.GenerateKey()
	if err != nil {
		return Key{}, err
	}
	if err := persist(path, priv); err != nil {
		return Key{}, err
	}
	return Key{Public: pub, Private: priv}, nil
}

func decode(data []byte) (Key, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return Key{}, fmt.Errorf("walletkey: no PEM %s block found", pemBlockType)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return Key{}, fmt.Errorf("walletkey: parse PKCS8 key: %w", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return Key{}, fmt.Errorf("walletkey: key file does not hold an Ed25519 private key")
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return Key{}, fmt.Errorf("walletkey: could not derive public key")
	}
	return Key{Public: pub, Private: priv}, nil
}

func persist(path string, priv ed25519.PrivateKey) error {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("walletkey: marshal PKCS8 key: %w", err)
	}
	block := &pem.Block{Type: pemBlockType, Bytes: der}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("walletkey: create %s: %w", path, err)
	}
	defer f.Close()
	if err := pem.Encode(f, block); err != nil {
		return fmt.Errorf("walletkey: write %s: %w", path, err)
	}
	return nil
}
