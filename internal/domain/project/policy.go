package project

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FinishPolicy decides who may finish a project and when.
type FinishPolicy string

const (
	// FinishByInitiator lets only the initiator finish, at any time.
	FinishByInitiator FinishPolicy = "initiator"
	// FinishByInitiatorAfterEnd lets only the initiator finish, once the end date passed.
	FinishByInitiatorAfterEnd FinishPolicy = "initiator_after_end"
	// FinishByInitiatorOrAfterEnd lets the initiator finish any time, and any member after the end date.
	FinishByInitiatorOrAfterEnd FinishPolicy = "initiator_or_after_end"
)

// ParseFinishPolicy converts a config value into a policy. Empty means FinishByInitiator.
func ParseFinishPolicy(value string) (FinishPolicy, error) {
	switch FinishPolicy(value) {
	case "":
		return FinishByInitiator, nil
	case FinishByInitiator, FinishByInitiatorAfterEnd, FinishByInitiatorOrAfterEnd:
		return FinishPolicy(value), nil
	default:
		return "", fmt.Errorf("unknown finish policy %q", value)
	}
}

// Authorize returns nil if caller may finish proj at now.
func (p FinishPolicy) Authorize(proj *Project, caller common.Address, now time.Time) error {
	isInitiator := caller == proj.Initiator
	ended := !now.Before(proj.EndsAt())

	switch p {
	case FinishByInitiatorAfterEnd:
		if !isInitiator {
			return fmt.Errorf("%w: only the initiator can finish project %d", ErrUnauthorized, proj.ID)
		}
		if !ended {
			return ErrTooEarly
		}
		return nil
	case FinishByInitiatorOrAfterEnd:
		if isInitiator {
			return nil
		}
		if !proj.HasMember(caller) {
			return fmt.Errorf("%w: %s is not a member of project %d", ErrUnauthorized, caller.Hex(), proj.ID)
		}
		if !ended {
			return ErrTooEarly
		}
		return nil
	default:
		if !isInitiator {
			return fmt.Errorf("%w: only the initiator can finish project %d", ErrUnauthorized, proj.ID)
		}
		return nil
	}
}
