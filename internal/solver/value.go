// Package solver implements the retrograde fixed-point engine that
// solves one canonical tier at a time, given that every canonical
// child tier is already persisted (spec.md §4.F).
package solver

import "fmt"

// Outcome classifies a decided (or undecided) position value.
type Outcome int

const (
	Unreached Outcome = iota
	Lose
	Win
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Unreached:
		return "unreached"
	case Lose:
		return "lose"
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "?"
	}
}

// Value is the 16-bit encoded cell value stored in the DB: 0 for an
// unreached/illegal cell, 1..32767 for a lose at remoteness value-1,
// 32768 for a draw, 32769..65535 for a win at remoteness 65535-value.
type Value uint16

const (
	ValueUnreached Value = 0
	ValueDraw      Value = 32768
)

// EncodeLose returns the stored value for a lose at the given remoteness.
func EncodeLose(remoteness int) Value {
	return Value(remoteness + 1)
}

// EncodeWin returns the stored value for a win at the given remoteness.
func EncodeWin(remoteness int) Value {
	return Value(65535 - remoteness)
}

// Decode splits a stored value back into its outcome and remoteness
// (remoteness is meaningless for Unreached and Draw).
func (v Value) Decode() (Outcome, int) {
	switch {
	case v == ValueUnreached:
		return Unreached, 0
	case v == ValueDraw:
		return Draw, 0
	case v < ValueDraw:
		return Lose, int(v) - 1
	default:
		return Win, 65535 - int(v)
	}
}

func (v Value) String() string {
	o, r := v.Decode()
	if o == Lose || o == Win {
		return fmt.Sprintf("%v(%d)", o, r)
	}
	return o.String()
}
