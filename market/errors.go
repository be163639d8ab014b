package market

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a series that cannot be simulated: a price
// that is not positive, a missing column, an unknown signal or timestamps
// that do not strictly ascend. Index is the zero based row, or -1 when the
// problem is not tied to a row.
type InvalidInputError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid input for %q: %s", e.Symbol, e.Reason)
	}
	return fmt.Sprintf("invalid input for %q at row %d: %s", e.Symbol, e.Index, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalid(symbol string, idx int, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Symbol: symbol, Index: idx, Reason: fmt.Sprintf(format, args...)}
}
