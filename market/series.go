package market

import (
	"math"
	"time"
)

// Bar is one time step of a closing price series.
type Bar struct {
	Time  time.Time
	Close float64
}

// Row pairs a bar with the signal emitted for it.
type Row struct {
	Bar
	Signal Action
}

// Series is the ordered input for one symbol.
type Series struct {
	Symbol string
	Rows   []Row
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Rows) }

// Start and End return the first and last timestamps, or the zero time for an
// empty series.
func (s Series) Start() time.Time {
	if len(s.Rows) == 0 {
		return time.Time{}
	}
	return s.Rows[0].Time
}

func (s Series) End() time.Time {
	if len(s.Rows) == 0 {
		return time.Time{}
	}
	return s.Rows[len(s.Rows)-1].Time
}

// Validate checks every row before any simulation starts so a bad series
// never produces partial output.
func (s Series) Validate() error {
	for i, r := range s.Rows {
		if err := CheckPrice(s.Symbol, i, r.Close); err != nil {
			return err
		}
		if !r.Signal.Valid() {
			return invalid(s.Symbol, i, "unknown signal %d", int8(r.Signal))
		}
		if r.Time.IsZero() {
			return invalid(s.Symbol, i, "missing timestamp")
		}
		if i > 0 && !r.Time.After(s.Rows[i-1].Time) {
			return invalid(s.Symbol, i, "timestamp %s not after %s",
				r.Time.Format(time.RFC3339), s.Rows[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// CheckPrice rejects prices that would size an infinite or negative position.
// NaN and infinities fail too.
func CheckPrice(symbol string, idx int, price float64) error {
	if !(price > 0) || math.IsInf(price, 0) {
		return invalid(symbol, idx, "price %v must be positive and finite", price)
	}
	return nil
}
