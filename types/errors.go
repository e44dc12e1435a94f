package types

import "cosmossdk.io/errors"

// Configuration errors.
var (
	ErrInvalidRequest               = errors.Register(ModuleName, 2, "invalid request")
	ErrUnauthorized                 = errors.Register(ModuleName, 3, "unauthorized")
	ErrCellarNotFound               = errors.Register(ModuleName, 4, "cellar not found")
	ErrUnknownAdaptor               = errors.Register(ModuleName, 5, "adaptor not registered with router")
	ErrAdaptorAlreadyTrusted        = errors.Register(ModuleName, 6, "adaptor already trusted")
	ErrAdaptorNotTrusted            = errors.Register(ModuleName, 7, "adaptor not trusted")
	ErrAdaptorFailedSanityCheck     = errors.Register(ModuleName, 8, "adaptor failed sanity check")
	ErrPositionAlreadyUsed          = errors.Register(ModuleName, 9, "position id already used")
	ErrPositionNotFound             = errors.Register(ModuleName, 10, "position not found")
	ErrPositionNotTrusted           = errors.Register(ModuleName, 11, "position not trusted")
	ErrIdenticalPositionsNotAllowed = errors.Register(ModuleName, 12, "identical position already registered")
	ErrPositionPricingNotSetUp      = errors.Register(ModuleName, 13, "position pricing not set up")
	ErrFailedToForceOutPosition     = errors.Register(ModuleName, 14, "failed to force out position")
	ErrPositionNotInCatalogue       = errors.Register(ModuleName, 15, "position not in catalogue")
	ErrPositionArrayFull            = errors.Register(ModuleName, 16, "position array full")
	ErrDebtMismatch                 = errors.Register(ModuleName, 17, "position debt flag does not match array")
	ErrPositionNotEmpty             = errors.Register(ModuleName, 18, "position has a non-zero balance")
	ErrRemovingHoldingPosition      = errors.Register(ModuleName, 19, "cannot remove the holding position")
	ErrInvalidHoldingPosition       = errors.Register(ModuleName, 20, "invalid holding position")
	ErrAssetMismatch                = errors.Register(ModuleName, 21, "asset mismatch")
	ErrInvalidRebalanceDeviation    = errors.Register(ModuleName, 22, "invalid rebalance deviation")
	ErrInvalidShareLockPeriod       = errors.Register(ModuleName, 23, "invalid share lock period")
	ErrInvalidFee                   = errors.Register(ModuleName, 24, "invalid fee")
	ErrCallToAdaptorNotAllowed      = errors.Register(ModuleName, 25, "call to adaptor not allowed")
	ErrCommandNotAllowed            = errors.Register(ModuleName, 26, "command not allowed for adaptor")
	ErrUnsupportedCommand           = errors.Register(ModuleName, 27, "command not supported by adaptor")
	ErrInvalidAdaptorData           = errors.Register(ModuleName, 28, "invalid adaptor data")
	ErrInvalidIndex                 = errors.Register(ModuleName, 29, "invalid position index")
)

// Lifecycle and ledger errors.
var (
	ErrShutdown                 = errors.Register(ModuleName, 30, "cellar is shut down")
	ErrNotShutdown              = errors.Register(ModuleName, 31, "cellar is not shut down")
	ErrZeroShares               = errors.Register(ModuleName, 32, "operation results in zero shares")
	ErrZeroAssets               = errors.Register(ModuleName, 33, "operation results in zero assets")
	ErrSharesAreLocked          = errors.Register(ModuleName, 34, "shares are locked")
	ErrInsufficientShares       = errors.Register(ModuleName, 35, "insufficient shares")
	ErrShareSupplyCapExceeded   = errors.Register(ModuleName, 36, "share supply cap exceeded")
	ErrIncompleteWithdraw       = errors.Register(ModuleName, 37, "incomplete withdraw")
	ErrInsufficientAssetsForFee = errors.Register(ModuleName, 38, "insufficient assets for fee")
	ErrDebtExceedsCredit        = errors.Register(ModuleName, 39, "debt exceeds credit")

	ErrDepositOnBehalfNotAllowed = errors.Register(ModuleName, 43, "deposit on behalf not allowed")
)

// Invariant violations.
var (
	ErrTotalAssetDeviatedOutsideRange = errors.Register(ModuleName, 40, "total assets deviated outside range")
	ErrTotalSharesMustRemainConstant  = errors.Register(ModuleName, 41, "total shares must remain constant")
	ErrHealthFactorTooLow             = errors.Register(ModuleName, 42, "health factor too low")
)

// Adaptor and external protocol failures.
var (
	ErrExternalReceiverBlocked  = errors.Register(ModuleName, 50, "external receiver blocked")
	ErrUserWithdrawsNotAllowed  = errors.Register(ModuleName, 51, "user withdraws not allowed")
	ErrPositionsMustBeTracked   = errors.Register(ModuleName, 52, "positions must be tracked")
	ErrPoolInReenteredState     = errors.Register(ModuleName, 53, "pool in re-entered state")
	ErrExternalProtocolRejected = errors.Register(ModuleName, 54, "external protocol rejected the call")
	ErrInsufficientBalance      = errors.Register(ModuleName, 55, "insufficient balance")
	ErrUserDepositsNotAllowed   = errors.Register(ModuleName, 56, "user deposits not allowed")
)
