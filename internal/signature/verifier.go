package signature

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrMalformed indicates a signature that cannot be decoded or is not canonical.
	ErrMalformed = errors.New("malformed signature")

	// ErrMismatch indicates a valid signature produced by a different key.
	ErrMismatch = errors.New("signature does not match signer")
)

// Verifier checks EIP-191 personal-message signatures over 32-byte digests.
// It holds no state and is safe for concurrent use.
type Verifier struct{}

// NewVerifier returns a Verifier.
func NewVerifier() Verifier {
	return Verifier{}
}

// Verify reports nil when sig was produced by signer's key over digest.
func (Verifier) Verify(signer common.Address, digest common.Hash, sig []byte) error {
	recovered, err := Recover(digest, sig)
	if err != nil {
		return err
	}
	if recovered != signer {
		return fmt.Errorf("%w: recovered %s", ErrMismatch, recovered.Hex())
	}
	return nil
}

// Recover returns the address whose key produced sig over the prefixed digest.
// Recovery ids 27/28 are accepted alongside 0/1; high-S signatures are rejected.
func Recover(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrMalformed, len(sig))
	}

	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(normalized[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}, fmt.Errorf("%w: invalid signature values", ErrMalformed)
	}

	pub, err := crypto.SigToPub(accounts.TextHash(digest.Bytes()), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
