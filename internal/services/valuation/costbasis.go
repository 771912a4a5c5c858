// Package valuation holds the pure cost-basis and P&L aggregation functions.
// Nothing in this package performs I/O or mutates its inputs.
package valuation

import (
	"errors"
	"fmt"
)

// ErrInvalidSellQuantity is returned for any sell request whose quantity is
// non-positive or exceeds current holdings. Callers check it with errors.Is;
// the wrapped message distinguishes the two cases for user-facing output.
var ErrInvalidSellQuantity = errors.New("invalid sell quantity")

// ErrInvalidAcquisition is returned when a buy carries a non-positive
// quantity or price.
var ErrInvalidAcquisition = errors.New("invalid acquisition")

// BlendPosition computes the new quantity and weighted-average cost after
// acquiring q1 units at price p1 on top of an existing position of q0 units
// at average cost c0. A zero q0 means no existing position, so the result is
// simply the incoming acquisition.
func BlendPosition(q0, c0, q1, p1 float64) (quantity, averageCost float64, err error) {
	if q1 <= 0 || p1 <= 0 {
		return 0, 0, fmt.Errorf("%w: quantity and price must be positive", ErrInvalidAcquisition)
	}
	if q0 <= 0 {
		return q1, p1, nil
	}
	quantity = q0 + q1
	averageCost = (q0*c0 + q1*p1) / quantity
	return quantity, averageCost, nil
}

// ValidateSellQuantity checks a sell request against current holdings.
// Valid iff 0 < requested <= held.
func ValidateSellQuantity(held, requested float64) error {
	if requested <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidSellQuantity)
	}
	if requested > held {
		return fmt.Errorf("%w: quantity %g exceeds holdings of %g", ErrInvalidSellQuantity, requested, held)
	}
	return nil
}

// RealizedPnL computes the profit locked in by selling quantity units at
// salePrice against an averageCost basis.
func RealizedPnL(quantity, salePrice, averageCost float64) float64 {
	return (salePrice - averageCost) * quantity
}
