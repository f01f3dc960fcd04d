package signature

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces wallet-style signatures (recovery id 27/28) for a private key.
// Used by the CLI and by tests.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner wraps an existing key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &Signer{key: key}, nil
}

// ParseSigner loads a hex-encoded private key, with or without 0x prefix.
func ParseSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// HexKey returns the private key as hex without prefix.
func (s *Signer) HexKey() string {
	return common.Bytes2Hex(crypto.FromECDSA(s.key))
}

// Sign signs digest as an EIP-191 personal message.
func (s *Signer) Sign(digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(digest.Bytes()), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignCheckIn signs the check-in message for this signer's address.
func (s *Signer) SignCheckIn(projectID uint64, proofHash string, timestamp int64) ([]byte, error) {
	return s.Sign(CheckInDigest(projectID, proofHash, timestamp, s.Address()))
}

// SignAction signs an action message for this signer's address.
func (s *Signer) SignAction(action string, projectID uint64, timestamp int64) ([]byte, error) {
	return s.Sign(ActionDigest(action, projectID, timestamp, s.Address()))
}
