// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"

	"github.com/vechain/stakeledger/builtin/solidity"
)

// Kind classifies a revert so callers can tell "try again later" from "never valid"
// from "system underfunded".
type Kind uint8

const (
	KindUnknown Kind = iota
	Validation
	Authorization
	StateConflict
	RateLimited
	DailyCapExceeded
	InsufficientFunds
	InsufficientRewardPool
	RewardCapExceeded
	TransferFailed
	ArithmeticFault
)

var kindNames = [...]string{
	KindUnknown:            "Unknown",
	Validation:             "ValidationError",
	Authorization:          "AuthorizationError",
	StateConflict:          "StateConflict",
	RateLimited:            "RateLimited",
	DailyCapExceeded:       "DailyCapExceeded",
	InsufficientFunds:      "InsufficientFunds",
	InsufficientRewardPool: "InsufficientRewardPool",
	RewardCapExceeded:      "RewardCapExceeded",
	TransferFailed:         "TransferFailed",
	ArithmeticFault:        "ArithmeticFault",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Retryable reports whether the same call may succeed later without any other change.
func (k Kind) Retryable() bool {
	return k == RateLimited || k == DailyCapExceeded
}

// ErrRevert is a rejected operation. Nothing is committed when one is returned.
type ErrRevert struct {
	kind    Kind
	message string
	cause   error
}

// New creates a validation revert.
func New(message string) *ErrRevert {
	return newRevert(Validation, message)
}

func newRevert(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Kind returns the kind of the revert.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// Unwrap returns the detail attached with With.
func (e *ErrRevert) Unwrap() error {
	return e.cause
}

// Is matches reverts of the same kind and message, ignoring the attached detail.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	return ok && t.kind == e.kind && t.message == e.message
}

// With returns a copy of the revert carrying the cause as detail.
func (e *ErrRevert) With(cause error) *ErrRevert {
	return &ErrRevert{kind: e.kind, message: e.message, cause: cause}
}

// Withf returns a copy of the revert carrying a formatted detail.
func (e *ErrRevert) Withf(format string, args ...any) *ErrRevert {
	return e.With(fmtError(format, args...))
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of err. Overflow and underflow of storage counters are
// arithmetic faults; any other non-revert error is KindUnknown.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	if errors.Is(err, solidity.ErrOverflow) || errors.Is(err, solidity.ErrUnderflow) {
		return ArithmeticFault
	}
	return KindUnknown
}

// Arith converts counter overflow/underflow into ErrArithmeticFault and passes other
// errors through unchanged.
func Arith(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, solidity.ErrOverflow) || errors.Is(err, solidity.ErrUnderflow) {
		return ErrArithmeticFault.With(err)
	}
	return err
}
