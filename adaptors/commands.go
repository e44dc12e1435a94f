package adaptors

import (
	"cosmossdk.io/math"

	"github.com/provlabs/cellar/types"
)

var (
	_ types.AdaptorCommand = DepositToCompound{}
	_ types.AdaptorCommand = WithdrawFromCompound{}
	_ types.AdaptorCommand = AddCollateral{}
	_ types.AdaptorCommand = RemoveCollateral{}
	_ types.AdaptorCommand = BorrowFromFraxlend{}
	_ types.AdaptorCommand = RepayFraxlendDebt{}
	_ types.AdaptorCommand = AddLiquidity{}
	_ types.AdaptorCommand = RemoveLiquidity{}
	_ types.AdaptorCommand = DepositToCellar{}
	_ types.AdaptorCommand = WithdrawFromCellar{}
)

// DepositToCompound supplies underlying held by the cellar to a market. All
// supplies the whole holder balance.
type DepositToCompound struct {
	Market string               `json:"market"`
	Amount types.WithdrawAmount `json:"amount"`
}

// WithdrawFromCompound redeems underlying from a market back to the cellar.
type WithdrawFromCompound struct {
	Market string               `json:"market"`
	Amount types.WithdrawAmount `json:"amount"`
}

// AddCollateral posts collateral held by the cellar to a pair.
type AddCollateral struct {
	Pair   string               `json:"pair"`
	Amount types.WithdrawAmount `json:"amount"`
}

// RemoveCollateral takes collateral back from a pair.
type RemoveCollateral struct {
	Pair   string               `json:"pair"`
	Amount types.WithdrawAmount `json:"amount"`
}

// BorrowFromFraxlend borrows the pair asset to the cellar.
type BorrowFromFraxlend struct {
	Pair   string   `json:"pair"`
	Amount math.Int `json:"amount"`
}

// RepayFraxlendDebt repays pair debt. All repays the whole debt.
type RepayFraxlendDebt struct {
	Pair   string               `json:"pair"`
	Amount types.WithdrawAmount `json:"amount"`
}

// AddLiquidity deposits both pool coins held by the cellar.
type AddLiquidity struct {
	Pool    string                  `json:"pool"`
	Amounts [2]types.WithdrawAmount `json:"amounts"`
	MinLP   math.Int                `json:"min_lp"`
}

// RemoveLiquidity burns LP tokens for both pool coins.
type RemoveLiquidity struct {
	Pool       string               `json:"pool"`
	LP         types.WithdrawAmount `json:"lp"`
	MinAmounts [2]math.Int          `json:"min_amounts"`
}

// DepositToCellar deposits the nested cellar asset held by the cellar.
type DepositToCellar struct {
	CellarID uint32               `json:"cellar_id"`
	Assets   types.WithdrawAmount `json:"assets"`
}

// WithdrawFromCellar withdraws assets from a nested cellar. All withdraws the
// current maximum.
type WithdrawFromCellar struct {
	CellarID uint32               `json:"cellar_id"`
	Assets   types.WithdrawAmount `json:"assets"`
}

func (DepositToCompound) CommandName() string    { return "DepositToCompound" }
func (WithdrawFromCompound) CommandName() string { return "WithdrawFromCompound" }
func (AddCollateral) CommandName() string        { return "AddCollateral" }
func (RemoveCollateral) CommandName() string     { return "RemoveCollateral" }
func (BorrowFromFraxlend) CommandName() string   { return "BorrowFromFraxlend" }
func (RepayFraxlendDebt) CommandName() string    { return "RepayFraxlendDebt" }
func (AddLiquidity) CommandName() string         { return "AddLiquidity" }
func (RemoveLiquidity) CommandName() string      { return "RemoveLiquidity" }
func (DepositToCellar) CommandName() string      { return "DepositToCellar" }
func (WithdrawFromCellar) CommandName() string   { return "WithdrawFromCellar" }
