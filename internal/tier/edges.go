package tier

import "github.com/herohde/xiangqisolve/internal/xq"

// Change describes the inventory delta between a parent tier and a
// child tier: a captured kind/color, a pawn forward step, or both
// together (spec.md §4.B). FromDigit is the pawn's row digit in the
// parent (before the step); the child has it at FromDigit-1.
type Change struct {
	HasCapture   bool
	CaptureKind  xq.Kind
	CaptureColor xq.Color

	HasPawnStep bool
	PawnColor   xq.Color
	FromDigit   int
}

// Edge pairs a neighboring tier string with the Change that produced it.
type Edge struct {
	Tier   string
	Change Change
}

// captureFeasible reports whether a kind/color can plausibly be
// captured given the tier's remaining inventory: advisors and bishops
// never leave their home scope, so they are only reachable by a rook,
// cannon, knight or pawn belonging to the opponent. Other kinds are
// always reachable (the king and rooks can attack anywhere on their
// rank/file, and cannons/knights/pawns move freely enough that no
// tier-level feasibility gate is needed).
func captureFeasible(t *Tier, kind xq.Kind, color xq.Color) bool {
	if kind != xq.Advisor && kind != xq.Bishop {
		return true
	}
	opp := color.Opponent()
	return t.Counts[idxOf(xq.Rook, opp)] > 0 ||
		t.Counts[idxOf(xq.Cannon, opp)] > 0 ||
		t.Counts[idxOf(xq.Knight, opp)] > 0 ||
		t.Counts[idxOf(xq.Pawn, opp)] > 0
}

func (t *Tier) withCountDelta(idx, delta int) *Tier {
	c := t.clone()
	c.Counts[idx] += delta
	return c
}

func (t *Tier) withPawnRowRemoved(color xq.Color, digit int) *Tier {
	c := t.clone()
	rows := c.rowsFor(color)
	for i, r := range rows {
		if r == digit {
			rows = append(append([]int(nil), rows[:i]...), rows[i+1:]...)
			break
		}
	}
	c.setRowsFor(color, rows)
	c.Counts[idxOf(xq.Pawn, color)]--
	return c
}

func (t *Tier) withPawnRowInserted(color xq.Color, digit int) *Tier {
	c := t.clone()
	rows := append(append([]int(nil), c.rowsFor(color)...), digit)
	c.setRowsFor(color, rows)
	c.Counts[idxOf(xq.Pawn, color)]++
	return c
}

// withPawnForward advances one pawn of color at the given digit one
// step forward (digit decreases by one, toward the enemy back rank).
func (t *Tier) withPawnForward(color xq.Color, digit int) *Tier {
	c := t.clone()
	rows := append([]int(nil), c.rowsFor(color)...)
	for i, r := range rows {
		if r == digit {
			rows[i] = digit - 1
			break
		}
	}
	c.setRowsFor(color, rows)
	return c
}

// withPawnBackward is the reverse step used by Parents: moves the
// child's pawn at digit back one row, to digit+1.
func (t *Tier) withPawnBackward(color xq.Color, digit int) *Tier {
	c := t.clone()
	rows := append([]int(nil), c.rowsFor(color)...)
	for i, r := range rows {
		if r == digit {
			rows[i] = digit + 1
			break
		}
	}
	c.setRowsFor(color, rows)
	return c
}

// nonPawnIndices lists the 10 non-king, non-pawn count indices.
var nonPawnIndices = []int{
	RedAIdx, BlackAIdx, RedBIdx, BlackBIdx,
	RedNIdx, BlackNIdx, RedCIdx, BlackCIdx, RedRIdx, BlackRIdx,
}

// Children enumerates every legal tier reachable by one ply from t: a
// pure capture, a pure pawn forward step, or a capture combined with a
// pawn forward step (spec.md §4.B). Each candidate is validated against
// IsLegal before being emitted.
func (t *Tier) Children() ([]Edge, error) {
	if err := t.IsLegal(); err != nil {
		return nil, err
	}
	var out []Edge
	emit := func(cand *Tier, ch Change) {
		if err := cand.IsLegal(); err != nil {
			return
		}
		out = append(out, Edge{Tier: cand.String(), Change: ch})
	}

	// 1. Pure capture of a non-pawn kind.
	for _, idx := range nonPawnIndices {
		if t.Counts[idx] == 0 {
			continue
		}
		kind, color := kindAt(idx)
		if !captureFeasible(t, kind, color) {
			continue
		}
		cand := t.withCountDelta(idx, -1)
		emit(cand, Change{HasCapture: true, CaptureKind: kind, CaptureColor: color})
	}
	// 1b. Pure capture of a pawn (captor is not itself a pawn advancing).
	for _, color := range []xq.Color{xq.Red, xq.Black} {
		for _, d := range distinctDesc(t.rowsFor(color)) {
			cand := t.withPawnRowRemoved(color, d)
			emit(cand, Change{HasCapture: true, CaptureKind: xq.Pawn, CaptureColor: color})
		}
	}

	// 2. Pure pawn forward step, no capture.
	for _, color := range []xq.Color{xq.Red, xq.Black} {
		for _, d := range distinctDesc(t.rowsFor(color)) {
			if d == 0 {
				continue // already at the enemy back rank; nowhere to advance
			}
			cand := t.withPawnForward(color, d)
			emit(cand, Change{HasPawnStep: true, PawnColor: color, FromDigit: d})
		}
	}

	// 3. Capture combined with a pawn forward step of the capturing
	// side's own pawn (the captured piece may be any enemy kind, a pawn
	// included; see DESIGN.md).
	for _, moverColor := range []xq.Color{xq.Red, xq.Black} {
		oppColor := moverColor.Opponent()
		for _, d := range distinctDesc(t.rowsFor(moverColor)) {
			if d == 0 {
				continue
			}
			for _, idx := range nonPawnIndices {
				kind, color := kindAt(idx)
				if color != oppColor || t.Counts[idx] == 0 {
					continue
				}
				if !captureFeasible(t, kind, color) {
					continue
				}
				cand := t.withPawnForward(moverColor, d).withCountDelta(idx, -1)
				emit(cand, Change{
					HasCapture: true, CaptureKind: kind, CaptureColor: color,
					HasPawnStep: true, PawnColor: moverColor, FromDigit: d,
				})
			}
			// A pawn advancing onto an enemy pawn: the captured pawn stood
			// on the destination row, whose digit is 10-d for either color.
			for _, e := range distinctDesc(t.rowsFor(oppColor)) {
				if e != 10-d {
					continue
				}
				cand := t.withPawnForward(moverColor, d).withPawnRowRemoved(oppColor, e)
				emit(cand, Change{
					HasCapture: true, CaptureKind: xq.Pawn, CaptureColor: oppColor,
					HasPawnStep: true, PawnColor: moverColor, FromDigit: d,
				})
			}
		}
	}
	return out, nil
}

// Children is the free-function form.
func Children(s string) ([]Edge, error) {
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return t.Children()
}

// Parents enumerates every tier one ply before t: the dual of Children,
// adding back a captured piece, stepping a pawn backward, or both.
func (t *Tier) Parents() ([]Edge, error) {
	if err := t.IsLegal(); err != nil {
		return nil, err
	}
	var out []Edge
	emit := func(cand *Tier, ch Change) {
		if err := cand.IsLegal(); err != nil {
			return
		}
		out = append(out, Edge{Tier: cand.String(), Change: ch})
	}

	// 1. Reverse pure capture: add back a non-pawn kind.
	for _, idx := range nonPawnIndices {
		kind, color := kindAt(idx)
		if t.Counts[idx] >= kind.MaxCount() {
			continue
		}
		cand := t.withCountDelta(idx, 1)
		if !captureFeasible(cand, kind, color) {
			continue
		}
		emit(cand, Change{HasCapture: true, CaptureKind: kind, CaptureColor: color})
	}
	// 1b. Reverse pure capture of a pawn: add back a pawn at any row.
	for _, color := range []xq.Color{xq.Red, xq.Black} {
		if t.Counts[idxOf(xq.Pawn, color)] >= xq.Pawn.MaxCount() {
			continue
		}
		for d := 0; d <= 6; d++ {
			cand := t.withPawnRowInserted(color, d)
			emit(cand, Change{HasCapture: true, CaptureKind: xq.Pawn, CaptureColor: color})
		}
	}

	// 2. Reverse pawn forward step (no capture): step a pawn back.
	for _, color := range []xq.Color{xq.Red, xq.Black} {
		for _, d := range distinctDesc(t.rowsFor(color)) {
			if d >= 6 {
				continue
			}
			cand := t.withPawnBackward(color, d)
			emit(cand, Change{HasPawnStep: true, PawnColor: color, FromDigit: d + 1})
		}
	}

	// 3. Reverse combined capture + pawn forward.
	for _, moverColor := range []xq.Color{xq.Red, xq.Black} {
		oppColor := moverColor.Opponent()
		for _, d := range distinctDesc(t.rowsFor(moverColor)) {
			if d >= 6 {
				continue
			}
			for _, idx := range nonPawnIndices {
				kind, color := kindAt(idx)
				if color != oppColor || t.Counts[idx] >= kind.MaxCount() {
					continue
				}
				cand := t.withPawnBackward(moverColor, d).withCountDelta(idx, 1)
				if !captureFeasible(cand, kind, color) {
					continue
				}
				emit(cand, Change{
					HasCapture: true, CaptureKind: kind, CaptureColor: color,
					HasPawnStep: true, PawnColor: moverColor, FromDigit: d + 1,
				})
			}
			// Reverse of a pawn advancing onto an enemy pawn: the captured
			// pawn goes back on the parent's destination row, digit 9-d.
			if t.Counts[idxOf(xq.Pawn, oppColor)] < xq.Pawn.MaxCount() {
				cand := t.withPawnBackward(moverColor, d).withPawnRowInserted(oppColor, 9-d)
				emit(cand, Change{
					HasCapture: true, CaptureKind: xq.Pawn, CaptureColor: oppColor,
					HasPawnStep: true, PawnColor: moverColor, FromDigit: d + 1,
				})
			}
		}
	}
	return out, nil
}

// Parents is the free-function form.
func Parents(s string) ([]Edge, error) {
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return t.Parents()
}
