package types

import (
	"fmt"

	"cosmossdk.io/collections"
)

const (
	// ModuleName defines the module name
	ModuleName = "cellar"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// GovModuleName is the default registry authority.
	GovModuleName = "gov"
)

var (
	// ParamsKeyPrefix is the prefix to retrieve the module Params
	ParamsKeyPrefix = collections.NewPrefix(0)
	// ParamsName is a human-readable name for the params collection.
	ParamsName      = "params"

	// AdaptorsKeyPrefix is the prefix of the trusted adaptor set
	AdaptorsKeyPrefix = collections.NewPrefix(1)
	AdaptorsName      = "trusted_adaptors"

	// PositionsKeyPrefix is the prefix of the position registry
	PositionsKeyPrefix = collections.NewPrefix(2)
	PositionsName      = "positions"

	// PositionDescriptorsKeyPrefix indexes registry positions by descriptor
	PositionDescriptorsKeyPrefix = collections.NewPrefix(3)
	PositionDescriptorsName      = "position_descriptors"

	// CellarsKeyPrefix is the prefix to retrieve all Cellars
	CellarsKeyPrefix = collections.NewPrefix(4)
	CellarsName      = "cellars"

	// CellarSeqKeyPrefix is the prefix of the cellar id sequence
	CellarSeqKeyPrefix = collections.NewPrefix(5)
	CellarSeqName      = "cellar_seq"

	// CellarPositionsKeyPrefix holds per-cellar position configuration
	CellarPositionsKeyPrefix = collections.NewPrefix(6)
	CellarPositionsName      = "cellar_positions"

	// AdaptorCatalogueKeyPrefix holds the adaptors a cellar's strategist may call
	AdaptorCatalogueKeyPrefix = collections.NewPrefix(7)
	AdaptorCatalogueName      = "adaptor_catalogue"

	// PositionCatalogueKeyPrefix holds the positions a cellar may add
	PositionCatalogueKeyPrefix = collections.NewPrefix(8)
	PositionCatalogueName      = "position_catalogue"

	// ShareLocksKeyPrefix holds the block height at which an owner's shares were last minted
	ShareLocksKeyPrefix = collections.NewPrefix(9)
	ShareLocksName      = "share_locks"

	// FeeAccrualQueueKeyPrefix is the prefix of the scheduled fee accrual queue
	FeeAccrualQueueKeyPrefix = collections.NewPrefix(10)
	FeeAccrualQueueName      = "fee_accrual_queue"
)

// GetCellarAddress returns the holder address of the given cellar.
func GetCellarAddress(cellarID uint32) string {
	return fmt.Sprintf("%s/%d", ModuleName, cellarID)
}

// GetShareDenom returns the share denom of the given cellar.
func GetShareDenom(cellarID uint32) string {
	return fmt.Sprintf("%s/%d/shares", ModuleName, cellarID)
}
