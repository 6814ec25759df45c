package models

import (
	"errors"
	"fmt"
)

var (
	ErrPairInactive        = errors.New("pair is inactive")
	ErrNoLiquidity         = errors.New("no liquidity")
	ErrCurveExhausted      = errors.New("bonding curve exhausted")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrRoyaltyRateExceeded = errors.New("royalty rate exceeds max royalty fee percent")
	ErrConfigOutOfBounds   = errors.New("config out of bounds")
	ErrDuplicateSalt       = errors.New("duplicate salt")
	ErrBatchAborted        = errors.New("batch aborted")

	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPairNotFound      = errors.New("pair not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotNftOwner       = errors.New("sender does not own nft")
)

// BatchAbortedError carries the first failing leg of a router batch.
// errors.Is matches both ErrBatchAborted and the leg's own cause.
type BatchAbortedError struct {
	Leg int
	Err error
}

func (e *BatchAbortedError) Error() string {
	return fmt.Sprintf("%s: leg %d: %v", ErrBatchAborted, e.Leg, e.Err)
}

func (e *BatchAbortedError) Unwrap() []error {
	return []error{ErrBatchAborted, e.Err}
}
