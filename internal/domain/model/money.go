package model

import (
	"github.com/shopspring/decimal"

	"ecommerce-payments/internal/domain"
)

// ToMinorUnits converts a decimal currency total into the integer minor-unit
// amount the gateway requires, assuming a two-decimal-place currency. The
// scaled value is rounded to the nearest whole unit rather than truncated, so
// sub-cent residue never systematically undercharges.
func ToMinorUnits(total decimal.Decimal) (int64, error) {
	if total.IsNegative() {
		return 0, domain.ErrNegativeAmount
	}
	return total.Shift(2).Round(0).IntPart(), nil
}
