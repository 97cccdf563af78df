package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a match cannot be set up.
	ErrInvalidConfiguration = errors.New("invalid match configuration")
	// ErrUnknownPlayer is returned when observing a player who is not live.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrIllegalAction is wrapped by every *IllegalActionError.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvariantViolation marks internal corruption. A match reporting it
	// refuses any further action.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Reason explains why an action was rejected.
type Reason int

const (
	ReasonNoOutstandingBet Reason = iota
	ReasonNonIncreasingBet
	ReasonBetOutOfRange
	ReasonMalformedLockMask
	ReasonRelockingLockedDie
	ReasonZeroDiceLocked
	ReasonMatchOver
	ReasonUnknownAction
)

func (r Reason) String() string {
	switch r {
	case ReasonNoOutstandingBet:
		return "no-outstanding-bet"
	case ReasonNonIncreasingBet:
		return "non-increasing-bet"
	case ReasonBetOutOfRange:
		return "bet-out-of-range"
	case ReasonMalformedLockMask:
		return "malformed-lock-mask"
	case ReasonRelockingLockedDie:
		return "relocking-locked-die"
	case ReasonZeroDiceLocked:
		return "zero-dice-locked"
	case ReasonMatchOver:
		return "match-over"
	case ReasonUnknownAction:
		return "unknown-action"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// IllegalActionError describes a rejected action. The match is left exactly
// as it was before the action was submitted.
type IllegalActionError struct {
	Player int
	Action ActionType
	Reason Reason
	Detail string
}

func (e *IllegalActionError) Error() string {
	msg := fmt.Sprintf("illegal %s by player %d: %s", e.Action, e.Player, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *IllegalActionError) Unwrap() error { return ErrIllegalAction }

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) (Reason, bool) {
	var illegal *IllegalActionError
	if errors.As(err, &illegal) {
		return illegal.Reason, true
	}
	return 0, false
}

// InvariantError reports engine corruption detected after a transition.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Detail
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

func illegal(player int, action ActionType, reason Reason, format string, args ...any) error {
	return &IllegalActionError{
		Player: player,
		Action: action,
		Reason: reason,
		Detail: fmt.Sprintf(format, args...),
	}
}

func violation(format string, args ...any) error {
	return &InvariantError{Detail: fmt.Sprintf(format, args...)}
}
