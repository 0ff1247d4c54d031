package core

import (
	"errors"
	"strconv"
)

// Configuration errors. All reject the call before any state mutation.
var (
	// ErrMarketNotCreated the market id does not map to a created market
	ErrMarketNotCreated = errors.New("market not created")
	// ErrMarketAlreadyCreated duplicate market creation
	ErrMarketAlreadyCreated = errors.New("market already created")
	// ErrInvalidMarketParams market params rejected at creation
	ErrInvalidMarketParams = errors.New("invalid market params")
	// ErrInvalidAmount amount must be positive
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Capacity errors.
var (
	// ErrCreditLimitExceeded borrow would exceed the borrower's credit line
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	// ErrDebtCapExceeded borrow would exceed the market debt cap
	ErrDebtCapExceeded = errors.New("debt cap exceeded")
	// ErrInsufficientLiquidity not enough idle supply to serve the request
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrInsufficientBalance position holds fewer shares than requested
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientCollateral borrow would leave the position under-collateralized
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	// ErrSubordinationCapExceeded junior tranche deposit above the subordination ceiling
	ErrSubordinationCapExceeded = errors.New("subordination cap exceeded")
	// ErrBackingFloorViolated junior tranche withdrawal below the backing floor
	ErrBackingFloorViolated = errors.New("backing floor violated")
)

// Timing errors.
var (
	// ErrCycleTooSoon cycle posted before the configured cycle duration elapsed
	ErrCycleTooSoon = errors.New("cycle too soon")
	// ErrMarketFrozen no payment cycle covers the current time
	ErrMarketFrozen = errors.New("market frozen")
)

// Authorization errors.
var (
	// ErrNotAuthorized caller is not the designated authority for the operation
	ErrNotAuthorized = errors.New("not authorized")
)

// Arithmetic errors.
var (
	// ErrArithmeticOverflow fixed-point computation exceeded the 256-bit word
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// ErrorCode numeric code exposed on the REST surface
type ErrorCode int

const (
	// ErrCodeUnknown unknown
	ErrCodeUnknown ErrorCode = 100000
	// ErrCodeNotAuthorized operation forbidden
	ErrCodeNotAuthorized ErrorCode = 100001
	// ErrCodeMarketNotCreated no market
	ErrCodeMarketNotCreated ErrorCode = 100100
	// ErrCodeMarketAlreadyCreated duplicated market
	ErrCodeMarketAlreadyCreated ErrorCode = 100101
	// ErrCodeInvalidAmount invalid amount
	ErrCodeInvalidAmount ErrorCode = 100102
	// ErrCodeInsufficientLiquidity insufficient liquidity
	ErrCodeInsufficientLiquidity ErrorCode = 100103
	// ErrCodeInsufficientBalance insufficient balance
	ErrCodeInsufficientBalance ErrorCode = 100104
	// ErrCodeInsufficientCollateral insufficient collateral
	ErrCodeInsufficientCollateral ErrorCode = 100105
	// ErrCodeCreditLimitExceeded credit limit exceeded
	ErrCodeCreditLimitExceeded ErrorCode = 100106
	// ErrCodeDebtCapExceeded debt cap exceeded
	ErrCodeDebtCapExceeded ErrorCode = 100107
	// ErrCodeSubordinationCap subordination cap exceeded
	ErrCodeSubordinationCap ErrorCode = 100108
	// ErrCodeBackingFloor backing floor violated
	ErrCodeBackingFloor ErrorCode = 100109
	// ErrCodeCycleTooSoon cycle too soon
	ErrCodeCycleTooSoon ErrorCode = 100110
	// ErrCodeMarketFrozen market frozen
	ErrCodeMarketFrozen ErrorCode = 100111
	// ErrCodeArithmeticOverflow arithmetic overflow
	ErrCodeArithmeticOverflow ErrorCode = 100112
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

// CodeOf maps a ledger error to its REST error code.
func CodeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return ErrCodeNotAuthorized
	case errors.Is(err, ErrMarketNotCreated):
		return ErrCodeMarketNotCreated
	case errors.Is(err, ErrMarketAlreadyCreated):
		return ErrCodeMarketAlreadyCreated
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidMarketParams):
		return ErrCodeInvalidAmount
	case errors.Is(err, ErrInsufficientLiquidity):
		return ErrCodeInsufficientLiquidity
	case errors.Is(err, ErrInsufficientBalance):
		return ErrCodeInsufficientBalance
	case errors.Is(err, ErrInsufficientCollateral):
		return ErrCodeInsufficientCollateral
	case errors.Is(err, ErrCreditLimitExceeded):
		return ErrCodeCreditLimitExceeded
	case errors.Is(err, ErrDebtCapExceeded):
		return ErrCodeDebtCapExceeded
	case errors.Is(err, ErrSubordinationCapExceeded):
		return ErrCodeSubordinationCap
	case errors.Is(err, ErrBackingFloorViolated):
		return ErrCodeBackingFloor
	case errors.Is(err, ErrCycleTooSoon):
		return ErrCodeCycleTooSoon
	case errors.Is(err, ErrMarketFrozen):
		return ErrCodeMarketFrozen
	case errors.Is(err, ErrArithmeticOverflow):
		return ErrCodeArithmeticOverflow
	default:
		return ErrCodeUnknown
	}
}
