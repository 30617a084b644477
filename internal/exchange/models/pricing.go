package models

import (
	"fmt"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/shopspring/decimal"
)

// DefaultNDS is the VAT rate in percent applied when a price includes VAT.
const DefaultNDS = 20

var hundred = decimal.NewFromInt(100)

// SubtractPercentage returns amount reduced by percent of itself.
func SubtractPercentage(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.Sub(amount.Div(hundred).Mul(decimal.NewFromInt(int64(percent))))
}

// NDSAmount extracts the VAT part from a VAT-inclusive amount.
func NDSAmount(amount decimal.Decimal, nds int) decimal.Decimal {
	rate := decimal.NewFromInt(int64(nds))
	return amount.Div(hundred.Add(rate)).Mul(rate).Round(2)
}

// PriceIncludingDeduction multiplies price by the weight left after the
// packaging deduction.
func PriceIncludingDeduction(weight, price, baleCount decimal.Decimal, kind PackingDeductionType, value int) (decimal.Decimal, error) {
	switch kind {
	case FromTotalWeight:
		weight = SubtractPercentage(weight, value)
	case FromBale:
		weight = weight.Sub(baleCount.Mul(decimal.NewFromInt(int64(value))))
	default:
		return decimal.Zero, errUnknownDeduction(kind)
	}
	return weight.Mul(price), nil
}

func errUnknownDeduction(kind PackingDeductionType) error {
	return fmt.Errorf("%w: unknown packing deduction type %q", e.ErrInvalidInput, kind)
}
