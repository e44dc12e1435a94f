package types

import (
	"strconv"

	"cosmossdk.io/core/event"
	sdkmath "cosmossdk.io/math"
)

// Event is a module event rendered as key/value attributes.
type Event interface {
	EventType() string
	Attributes() []event.Attribute
}

const (
	EventTypeCellarCreated       = "cellar_created"
	EventTypeDeposit             = "cellar_deposit"
	EventTypeWithdraw            = "cellar_withdraw"
	EventTypeRebalance           = "cellar_rebalance"
	EventTypeFeesAccrued         = "cellar_fees_accrued"
	EventTypeFeesSettled         = "cellar_fees_settled"
	EventTypePositionChanged     = "cellar_position_changed"
	EventTypeShutdownChanged     = "cellar_shutdown_changed"
	EventTypeRegistryChanged     = "cellar_registry_changed"
	EventTypeCatalogueChanged    = "cellar_catalogue_changed"
	EventTypeCellarConfigChanged = "cellar_config_changed"
)

func attr(k, v string) event.Attribute { return event.Attribute{Key: k, Value: v} }

func cellarAttr(id uint32) event.Attribute {
	return attr("cellar_id", strconv.FormatUint(uint64(id), 10))
}

// EventCellarCreated is emitted when a cellar is created.
type EventCellarCreated struct {
	CellarID uint32
	Owner    string
	Asset    string
}

func NewEventCellarCreated(c Cellar) EventCellarCreated {
	return EventCellarCreated{CellarID: c.ID, Owner: c.Owner, Asset: c.Asset}
}

func (e EventCellarCreated) EventType() string { return EventTypeCellarCreated }
func (e EventCellarCreated) Attributes() []event.Attribute {
	return []event.Attribute{cellarAttr(e.CellarID), attr("owner", e.Owner), attr("asset", e.Asset)}
}

// EventDeposit is emitted on deposit and mint.
type EventDeposit struct {
	CellarID uint32
	Caller   string
	Receiver string
	Assets   sdkmath.Int
	Shares   sdkmath.Int
}

func NewEventDeposit(cellarID uint32, caller, receiver string, assets, shares sdkmath.Int) EventDeposit {
	return EventDeposit{CellarID: cellarID, Caller: caller, Receiver: receiver, Assets: assets, Shares: shares}
}

func (e EventDeposit) EventType() string { return EventTypeDeposit }
func (e EventDeposit) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("caller", e.Caller),
		attr("receiver", e.Receiver),
		attr("assets", e.Assets.String()),
		attr("shares", e.Shares.String()),
	}
}

// EventWithdraw is emitted on withdraw and redeem.
type EventWithdraw struct {
	CellarID uint32
	Owner    string
	Receiver string
	Assets   sdkmath.Int
	Shares   sdkmath.Int
}

func NewEventWithdraw(cellarID uint32, owner, receiver string, assets, shares sdkmath.Int) EventWithdraw {
	return EventWithdraw{CellarID: cellarID, Owner: owner, Receiver: receiver, Assets: assets, Shares: shares}
}

func (e EventWithdraw) EventType() string { return EventTypeWithdraw }
func (e EventWithdraw) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("owner", e.Owner),
		attr("receiver", e.Receiver),
		attr("assets", e.Assets.String()),
		attr("shares", e.Shares.String()),
	}
}

// EventRebalance is emitted after a strategist batch commits.
type EventRebalance struct {
	CellarID     uint32
	Calls        int
	AssetsBefore sdkmath.Int
	AssetsAfter  sdkmath.Int
}

func NewEventRebalance(cellarID uint32, calls int, before, after sdkmath.Int) EventRebalance {
	return EventRebalance{CellarID: cellarID, Calls: calls, AssetsBefore: before, AssetsAfter: after}
}

func (e EventRebalance) EventType() string { return EventTypeRebalance }
func (e EventRebalance) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("calls", strconv.Itoa(e.Calls)),
		attr("assets_before", e.AssetsBefore.String()),
		attr("assets_after", e.AssetsAfter.String()),
	}
}

// EventFeesAccrued is emitted when fee shares are minted.
type EventFeesAccrued struct {
	CellarID         uint32
	PlatformFees     sdkmath.Int
	PerformanceFees  sdkmath.Int
	StrategistShares sdkmath.Int
	TreasuryShares   sdkmath.Int
}

func (e EventFeesAccrued) EventType() string { return EventTypeFeesAccrued }
func (e EventFeesAccrued) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("platform_fees", e.PlatformFees.String()),
		attr("performance_fees", e.PerformanceFees.String()),
		attr("strategist_shares", e.StrategistShares.String()),
		attr("treasury_shares", e.TreasuryShares.String()),
	}
}

// EventFeesSettled is emitted when fee shares are paid out in assets.
type EventFeesSettled struct {
	CellarID uint32
	Payee    string
	Shares   sdkmath.Int
	Assets   sdkmath.Int
}

func (e EventFeesSettled) EventType() string { return EventTypeFeesSettled }
func (e EventFeesSettled) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("payee", e.Payee),
		attr("shares", e.Shares.String()),
		attr("assets", e.Assets.String()),
	}
}

// EventPositionChanged is emitted when a cellar's position arrays change.
type EventPositionChanged struct {
	CellarID   uint32
	PositionID uint32
	Action     string
	Index      int
	Debt       bool
}

func (e EventPositionChanged) EventType() string { return EventTypePositionChanged }
func (e EventPositionChanged) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("position_id", strconv.FormatUint(uint64(e.PositionID), 10)),
		attr("action", e.Action),
		attr("index", strconv.Itoa(e.Index)),
		attr("debt", strconv.FormatBool(e.Debt)),
	}
}

// EventShutdownChanged is emitted when a cellar is shut down or revived.
type EventShutdownChanged struct {
	CellarID   uint32
	IsShutdown bool
}

func (e EventShutdownChanged) EventType() string { return EventTypeShutdownChanged }
func (e EventShutdownChanged) Attributes() []event.Attribute {
	return []event.Attribute{cellarAttr(e.CellarID), attr("is_shutdown", strconv.FormatBool(e.IsShutdown))}
}

// EventRegistryChanged is emitted on adaptor and position registry mutations.
type EventRegistryChanged struct {
	Action     string
	Adaptor    string
	PositionID uint32
}

func (e EventRegistryChanged) EventType() string { return EventTypeRegistryChanged }
func (e EventRegistryChanged) Attributes() []event.Attribute {
	return []event.Attribute{
		attr("action", e.Action),
		attr("adaptor", e.Adaptor),
		attr("position_id", strconv.FormatUint(uint64(e.PositionID), 10)),
	}
}

// EventCatalogueChanged is emitted when a cellar catalogue gains an entry.
type EventCatalogueChanged struct {
	CellarID   uint32
	Adaptor    string
	PositionID uint32
}

func (e EventCatalogueChanged) EventType() string { return EventTypeCatalogueChanged }
func (e EventCatalogueChanged) Attributes() []event.Attribute {
	return []event.Attribute{
		cellarAttr(e.CellarID),
		attr("adaptor", e.Adaptor),
		attr("position_id", strconv.FormatUint(uint64(e.PositionID), 10)),
	}
}

// EventCellarConfigChanged is emitted when an owner updates a cellar setting.
type EventCellarConfigChanged struct {
	CellarID uint32
	Setting  string
	Value    string
}

func (e EventCellarConfigChanged) EventType() string { return EventTypeCellarConfigChanged }
func (e EventCellarConfigChanged) Attributes() []event.Attribute {
	return []event.Attribute{cellarAttr(e.CellarID), attr("setting", e.Setting), attr("value", e.Value)}
}
