package models

import (
	"fmt"

	"cosmossdk.io/math"
)

// Coin is an amount of a fungible denom in minor units.
type Coin struct {
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: math.NewInt(amount)}
}

func (c Coin) String() string {
	return fmt.Sprintf("%s%s", c.Amount.String(), c.Denom)
}

// Validate checks the coin has a denom and a non-negative amount.
func (c Coin) Validate() error {
	if c.Denom == "" {
		return fmt.Errorf("%w: coin denom is required", ErrInvalidInput)
	}
	if c.Amount.IsNil() || c.Amount.IsNegative() {
		return fmt.Errorf("%w: coin amount must be non-negative", ErrInvalidInput)
	}
	return nil
}

// TokenPayment is one recipient's share of a trade.
type TokenPayment struct {
	Recipient string   `json:"recipient"`
	Amount    math.Int `json:"amount"`
}
