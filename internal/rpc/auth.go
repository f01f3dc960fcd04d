package rpc

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/signature"
)

// Action names bound into action signatures.
const (
	ActionCreate = "create_project"
	ActionJoin   = "join_project"
	ActionFinish = "finish_project"
)

// Authenticator resolves the caller of create, join and finish requests.
// When disabled it trusts the caller field as given.
type Authenticator struct {
	enabled  bool
	verifier checkin.SignatureVerifier
	clock    clock.Clock
	window   checkin.Window
}

// NewAuthenticator creates an Authenticator. A nil verifier or clock gets the default;
// window is used as given.
func NewAuthenticator(enabled bool, verifier checkin.SignatureVerifier, clk clock.Clock, window checkin.Window) *Authenticator {
	if verifier == nil {
		verifier = signature.NewVerifier()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Authenticator{enabled: enabled, verifier: verifier, clock: clk, window: window}
}

// Enabled reports whether signatures are checked.
func (a *Authenticator) Enabled() bool {
	return a.enabled
}

// Authenticate returns the caller once its signature over the action digest verifies.
func (a *Authenticator) Authenticate(action string, projectID uint64, s Signed) (common.Address, error) {
	caller, err := ParseAddress("caller", s.Caller)
	if err != nil {
		return common.Address{}, err
	}
	if !a.enabled {
		return caller, nil
	}

	if err := a.window.Check(a.clock.Now(), s.Timestamp); err != nil {
		return common.Address{}, err
	}
	sig, err := ParseSignature(s.Signature)
	if err != nil {
		return common.Address{}, err
	}
	digest := signature.ActionDigest(action, projectID, s.Timestamp, caller)
	if err := a.verifier.Verify(caller, digest, sig); err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", project.ErrSignatureMismatch, err)
	}
	return caller, nil
}

// ParseAddress decodes a 0x-prefixed hex address, naming field on failure.
func ParseAddress(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, project.NewValidationError(field, "must be a hex address")
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, project.NewValidationError(field, "must not be the zero address")
	}
	return addr, nil
}

// ParseSignature decodes a 0x-prefixed hex signature.
func ParseSignature(value string) ([]byte, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(value))
	if err != nil {
		return nil, project.NewValidationError("signature", "must be 0x-prefixed hex")
	}
	return sig, nil
}
