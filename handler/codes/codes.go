package codes

import (
	"errors"
	"strconv"

	"github.com/twitchtv/twirp"

	"creditline/core"
)

// CustomCodeKey meta key carrying the ledger error code
const CustomCodeKey = "custom_code"

// With wraps err as a twirp error with the ledger error code in meta.
func With(err error) twirp.Error {
	twerr, ok := err.(twirp.Error)
	if !ok {
		twerr = twirp.NewError(codeOf(err), err.Error())
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(int(core.CodeOf(err))))
}

// HTTPStatus rest status for err
func HTTPStatus(err error) int {
	return twirp.ServerHTTPStatusFromErrorCode(codeOf(err))
}

func codeOf(err error) twirp.ErrorCode {
	switch {
	case errors.Is(err, core.ErrMarketNotCreated):
		return twirp.NotFound
	case errors.Is(err, core.ErrMarketAlreadyCreated):
		return twirp.AlreadyExists
	case errors.Is(err, core.ErrNotAuthorized):
		return twirp.PermissionDenied
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMarketParams):
		return twirp.InvalidArgument
	case errors.Is(err, core.ErrCreditLimitExceeded),
		errors.Is(err, core.ErrDebtCapExceeded),
		errors.Is(err, core.ErrInsufficientLiquidity),
		errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrInsufficientCollateral),
		errors.Is(err, core.ErrSubordinationCapExceeded),
		errors.Is(err, core.ErrBackingFloorViolated),
		errors.Is(err, core.ErrCycleTooSoon),
		errors.Is(err, core.ErrMarketFrozen):
		return twirp.FailedPrecondition
	default:
		return twirp.Internal
	}
}
