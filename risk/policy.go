package risk

import "fmt"

// Policy holds the fractions the risk engine sizes and exits positions with.
type Policy struct {
	// Fraction of the initial cash committed to every entry, in (0,1].
	PositionFraction float64

	// Close a long when price falls this fraction below entry, in (0,1].
	StopLossFraction float64

	// Close a long when price rises this fraction above entry, > 0.
	TakeProfitFraction float64
}

// DefaultPolicy is 10% per position, 5% stop, 10% target.
func DefaultPolicy() Policy {
	return Policy{
		PositionFraction:   0.10,
		StopLossFraction:   0.05,
		TakeProfitFraction: 0.10,
	}
}

func (p Policy) Validate() error {
	if !(p.PositionFraction > 0 && p.PositionFraction <= 1) {
		return fmt.Errorf("risk: position fraction %v must be in (0,1]", p.PositionFraction)
	}
	if !(p.StopLossFraction > 0 && p.StopLossFraction <= 1) {
		return fmt.Errorf("risk: stop loss fraction %v must be in (0,1]", p.StopLossFraction)
	}
	if !(p.TakeProfitFraction > 0) {
		return fmt.Errorf("risk: take profit fraction %v must be positive", p.TakeProfitFraction)
	}
	return nil
}
