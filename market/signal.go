package market

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is the discrete decision a signal source emits for one bar.
// The numeric values match the wire format of signal files: 1, -1, 0.
type Action int8

const (
	Exit      Action = -1
	Hold      Action = 0
	EnterLong Action = 1
)

func (a Action) String() string {
	switch a {
	case EnterLong:
		return "enter-long"
	case Exit:
		return "exit"
	case Hold:
		return "hold"
	}
	return fmt.Sprintf("action(%d)", int8(a))
}

// Valid reports whether a is one of the three known actions.
func (a Action) Valid() bool {
	return a == EnterLong || a == Exit || a == Hold
}

// ParseAction accepts the integer wire values. Files written by dataframe
// tooling often carry "1.0" style floats, so those are accepted too.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Hold, fmt.Errorf("empty signal")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Hold, fmt.Errorf("bad signal %q: %w", s, err)
	}
	switch v {
	case 1:
		return EnterLong, nil
	case -1:
		return Exit, nil
	case 0:
		return Hold, nil
	}
	return Hold, fmt.Errorf("bad signal %q: want 1, -1 or 0", s)
}
