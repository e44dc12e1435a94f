package types

import (
	"encoding/json"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Msg is a state transition request routed to the msg server.
type Msg interface {
	ValidateBasic() error
}

func requireAddress(field, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("invalid %s address: empty", field)
	}
	return nil
}

func requirePositive(field string, v sdkmath.Int) error {
	if v.IsNil() || !v.IsPositive() {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

// MsgCreateCellar creates a cellar seeded with an initial deposit from Owner.
type MsgCreateCellar struct {
	Owner              string
	Strategist         string
	Name               string
	Asset              string
	HoldingPosition    uint32
	HoldingConfig      json.RawMessage
	InitialDeposit     sdkmath.Int
	FeeData            FeeData
	ShareLockPeriod    int64
	RebalanceDeviation sdkmath.LegacyDec
}

func (m MsgCreateCellar) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if err := requireAddress("strategist", m.Strategist); err != nil {
		return err
	}
	if strings.TrimSpace(m.Asset) == "" {
		return fmt.Errorf("asset cannot be empty")
	}
	if m.HoldingPosition == 0 {
		return fmt.Errorf("holding position cannot be zero")
	}
	if err := requirePositive("initial deposit", m.InitialDeposit); err != nil {
		return err
	}
	if !m.RebalanceDeviation.IsNil() {
		if err := ValidateRebalanceDeviation(m.RebalanceDeviation); err != nil {
			return err
		}
	}
	if m.ShareLockPeriod < 0 || m.ShareLockPeriod > MaxShareLockPeriod {
		return fmt.Errorf("share lock period must be in [0, %d]", MaxShareLockPeriod)
	}
	return m.FeeData.ValidateSettings()
}

type MsgCreateCellarResponse struct {
	CellarID uint32
	Shares   sdkmath.Int
}

// MsgDeposit deposits Assets for shares minted to Receiver.
type MsgDeposit struct {
	Caller   string
	CellarID uint32
	Assets   sdkmath.Int
	Receiver string
}

func (m MsgDeposit) ValidateBasic() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	if err := requireAddress("receiver", m.Receiver); err != nil {
		return err
	}
	return requirePositive("assets", m.Assets)
}

type MsgDepositResponse struct {
	Shares sdkmath.Int
}

// MsgMint mints exactly Shares to Receiver.
type MsgMint struct {
	Caller   string
	CellarID uint32
	Shares   sdkmath.Int
	Receiver string
}

func (m MsgMint) ValidateBasic() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	if err := requireAddress("receiver", m.Receiver); err != nil {
		return err
	}
	return requirePositive("shares", m.Shares)
}

type MsgMintResponse struct {
	Assets sdkmath.Int
}

// MsgWithdraw withdraws exactly Assets from Owner's shares to Receiver.
type MsgWithdraw struct {
	Owner    string
	CellarID uint32
	Assets   sdkmath.Int
	Receiver string
}

func (m MsgWithdraw) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if err := requireAddress("receiver", m.Receiver); err != nil {
		return err
	}
	return requirePositive("assets", m.Assets)
}

type MsgWithdrawResponse struct {
	Shares sdkmath.Int
}

// MsgRedeem burns exactly Shares of Owner for assets sent to Receiver.
type MsgRedeem struct {
	Owner    string
	CellarID uint32
	Shares   sdkmath.Int
	Receiver string
}

func (m MsgRedeem) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if err := requireAddress("receiver", m.Receiver); err != nil {
		return err
	}
	return requirePositive("shares", m.Shares)
}

type MsgRedeemResponse struct {
	Assets sdkmath.Int
}

// MsgTransferShares moves unlocked shares between owners.
type MsgTransferShares struct {
	From     string
	To       string
	CellarID uint32
	Shares   sdkmath.Int
}

func (m MsgTransferShares) ValidateBasic() error {
	if err := requireAddress("from", m.From); err != nil {
		return err
	}
	if err := requireAddress("to", m.To); err != nil {
		return err
	}
	return requirePositive("shares", m.Shares)
}

// MsgCallOnAdaptor runs a strategist rebalance batch.
type MsgCallOnAdaptor struct {
	Strategist string
	CellarID   uint32
	Calls      []AdaptorCall
}

func (m MsgCallOnAdaptor) ValidateBasic() error {
	if err := requireAddress("strategist", m.Strategist); err != nil {
		return err
	}
	if len(m.Calls) == 0 {
		return fmt.Errorf("at least one adaptor call is required")
	}
	for i, c := range m.Calls {
		if strings.TrimSpace(c.Adaptor) == "" {
			return fmt.Errorf("call %d: adaptor cannot be empty", i)
		}
		if len(c.Commands) == 0 {
			return fmt.Errorf("call %d: at least one command is required", i)
		}
		for j, cmd := range c.Commands {
			if cmd == nil {
				return fmt.Errorf("call %d command %d: nil command", i, j)
			}
		}
	}
	return nil
}

// MsgSendFees accrues platform and performance fees.
type MsgSendFees struct {
	Caller   string
	CellarID uint32
}

func (m MsgSendFees) ValidateBasic() error {
	return requireAddress("caller", m.Caller)
}

// MsgSettleFees redeems Payee's fee shares against the holding position.
type MsgSettleFees struct {
	Payee    string
	CellarID uint32
	Shares   sdkmath.Int
}

func (m MsgSettleFees) ValidateBasic() error {
	if err := requireAddress("payee", m.Payee); err != nil {
		return err
	}
	return requirePositive("shares", m.Shares)
}

// MsgTrustAdaptor trusts an adaptor into the registry.
type MsgTrustAdaptor struct {
	Authority string
	Adaptor   string
}

func (m MsgTrustAdaptor) ValidateBasic() error {
	if err := requireAddress("authority", m.Authority); err != nil {
		return err
	}
	if strings.TrimSpace(m.Adaptor) == "" {
		return fmt.Errorf("adaptor cannot be empty")
	}
	return nil
}

// MsgTrustPosition registers a position in the registry.
type MsgTrustPosition struct {
	Authority   string
	PositionID  uint32
	Adaptor     string
	AdaptorData json.RawMessage
}

func (m MsgTrustPosition) ValidateBasic() error {
	if err := requireAddress("authority", m.Authority); err != nil {
		return err
	}
	if m.PositionID == 0 {
		return fmt.Errorf("position id cannot be zero")
	}
	if !json.Valid(m.AdaptorData) {
		return fmt.Errorf("adaptor data must be valid json")
	}
	return nil
}

// MsgDistrustPosition removes a position from future use.
type MsgDistrustPosition struct {
	Authority  string
	PositionID uint32
}

func (m MsgDistrustPosition) ValidateBasic() error {
	return requireAddress("authority", m.Authority)
}

// MsgForcePositionOut removes a distrusted position from a cellar regardless of balance.
type MsgForcePositionOut struct {
	Authority   string
	CellarID    uint32
	Index       uint32
	PositionID  uint32
	InDebtArray bool
}

func (m MsgForcePositionOut) ValidateBasic() error {
	return requireAddress("authority", m.Authority)
}

// MsgAddPosition inserts a catalogued position into a cellar.
type MsgAddPosition struct {
	Owner       string
	CellarID    uint32
	Index       uint32
	PositionID  uint32
	ConfigData  json.RawMessage
	InDebtArray bool
}

func (m MsgAddPosition) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if len(m.ConfigData) > 0 && !json.Valid(m.ConfigData) {
		return fmt.Errorf("config data must be valid json")
	}
	return nil
}

// MsgRemovePosition removes an empty position from a cellar.
type MsgRemovePosition struct {
	Owner       string
	CellarID    uint32
	Index       uint32
	InDebtArray bool
}

func (m MsgRemovePosition) ValidateBasic() error {
	return requireAddress("owner", m.Owner)
}

// MsgSwapPositions swaps two entries of a cellar position array.
type MsgSwapPositions struct {
	Owner       string
	CellarID    uint32
	Index1      uint32
	Index2      uint32
	InDebtArray bool
}

func (m MsgSwapPositions) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if m.Index1 == m.Index2 {
		return fmt.Errorf("indices must differ")
	}
	return nil
}

// MsgSetHoldingPosition changes the position deposits are routed to.
type MsgSetHoldingPosition struct {
	Owner      string
	CellarID   uint32
	PositionID uint32
}

func (m MsgSetHoldingPosition) ValidateBasic() error {
	return requireAddress("owner", m.Owner)
}

// MsgInitiateShutdown shuts a cellar down.
type MsgInitiateShutdown struct {
	Owner    string
	CellarID uint32
}

func (m MsgInitiateShutdown) ValidateBasic() error {
	return requireAddress("owner", m.Owner)
}

// MsgLiftShutdown revives a shut down cellar.
type MsgLiftShutdown struct {
	Owner    string
	CellarID uint32
}

func (m MsgLiftShutdown) ValidateBasic() error {
	return requireAddress("owner", m.Owner)
}

// MsgSetRebalanceDeviation changes the allowed rebalance deviation.
type MsgSetRebalanceDeviation struct {
	Owner     string
	CellarID  uint32
	Deviation sdkmath.LegacyDec
}

func (m MsgSetRebalanceDeviation) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	return ValidateRebalanceDeviation(m.Deviation)
}

// MsgSetShareLockPeriod changes the share lock period.
type MsgSetShareLockPeriod struct {
	Owner    string
	CellarID uint32
	Blocks   int64
}

func (m MsgSetShareLockPeriod) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if m.Blocks < 0 || m.Blocks > MaxShareLockPeriod {
		return fmt.Errorf("share lock period must be in [0, %d]", MaxShareLockPeriod)
	}
	return nil
}

// MsgSetShareSupplyCap changes the share supply cap. Zero removes the cap.
type MsgSetShareSupplyCap struct {
	Owner    string
	CellarID uint32
	Cap      sdkmath.Int
}

func (m MsgSetShareSupplyCap) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if m.Cap.IsNil() || m.Cap.IsNegative() {
		return fmt.Errorf("cap cannot be negative")
	}
	return nil
}

// MsgSetFeeData changes fee rates and cuts. Accrual state is preserved.
type MsgSetFeeData struct {
	Owner                    string
	CellarID                 uint32
	PlatformFee              sdkmath.LegacyDec
	PerformanceFee           sdkmath.LegacyDec
	StrategistPlatformCut    sdkmath.LegacyDec
	StrategistPerformanceCut sdkmath.LegacyDec
}

func (m MsgSetFeeData) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	fd := FeeData{
		PlatformFee:              m.PlatformFee,
		PerformanceFee:           m.PerformanceFee,
		StrategistPlatformCut:    m.StrategistPlatformCut,
		StrategistPerformanceCut: m.StrategistPerformanceCut,
		StrategistPayoutAddress:  m.Owner,
	}
	return fd.ValidateSettings()
}

// MsgSetStrategistPayoutAddress changes where strategist fee shares go.
type MsgSetStrategistPayoutAddress struct {
	Owner    string
	CellarID uint32
	Payout   string
}

func (m MsgSetStrategistPayoutAddress) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	return requireAddress("payout", m.Payout)
}

// MsgAddAdaptorToCatalogue allows the strategist to call an adaptor.
type MsgAddAdaptorToCatalogue struct {
	Owner    string
	CellarID uint32
	Entry    AdaptorCatalogueEntry
}

func (m MsgAddAdaptorToCatalogue) ValidateBasic() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if strings.TrimSpace(m.Entry.Adaptor) == "" {
		return fmt.Errorf("adaptor cannot be empty")
	}
	return nil
}

// MsgAddPositionToCatalogue allows a cellar to add a position.
type MsgAddPositionToCatalogue struct {
	Owner      string
	CellarID   uint32
	PositionID uint32
}

func (m MsgAddPositionToCatalogue) ValidateBasic() error {
	return requireAddress("owner", m.Owner)
}

// MsgUpdateParams replaces the module parameters.
type MsgUpdateParams struct {
	Authority string
	Params    Params
}

func (m MsgUpdateParams) ValidateBasic() error {
	if err := requireAddress("authority", m.Authority); err != nil {
		return err
	}
	return m.Params.Validate()
}

// MsgEmptyResponse is returned by handlers with no result value.
type MsgEmptyResponse struct{}

// MsgSendFeesResponse reports the fees accrued and the shares minted for them.
type MsgSendFeesResponse struct {
	PlatformFees     sdkmath.Int
	PerformanceFees  sdkmath.Int
	StrategistShares sdkmath.Int
	TreasuryShares   sdkmath.Int
}

type MsgSettleFeesResponse struct {
	Assets sdkmath.Int
}
