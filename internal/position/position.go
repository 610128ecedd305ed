// Package position implements the bijection between a board position
// within a tier and a dense integer hash, plus the mailbox Position type
// the bijection and the move generator both operate on.
package position

import (
	"fmt"
	"sort"

	"github.com/herohde/xiangqisolve/internal/xq"
)

// Placement defines a single piece placement, mirroring the teacher's
// board.Placement shape.
type Placement struct {
	Square xq.Square
	Color  xq.Color
	Kind   xq.Kind
}

func (p Placement) String() string {
	return fmt.Sprintf("%v%v@%v", p.Color, p.Kind, p.Square)
}

// Position is a full Xiangqi board: every piece's square, grouped by
// kind and color for cheap hashing, plus the side to move. Unlike the
// teacher's bitboard-backed board.Position, this is a mailbox-style
// representation (see SPEC_FULL.md §4.C): 90 squares do not fit one
// 64-bit word, and the hash here is a combinatorial rank, not an
// attack-bitboard scan.
type Position struct {
	RedKing, BlackKing       xq.Square
	RedAdvisors, BlackAdvisors []xq.Square
	RedBishops, BlackBishops   []xq.Square
	RedPawns, BlackPawns       []xq.Square
	RedKnights, BlackKnights   []xq.Square
	RedCannons, BlackCannons   []xq.Square
	RedRooks, BlackRooks       []xq.Square

	ToMove xq.Color

	// Invalid is set by Unhash when the hash decodes to overlapping or
	// otherwise nonsensical placements; callers must treat the position
	// as a no-op (spec.md §4.C Unhash contract).
	Invalid bool
}

// groups returns every (squares, kind, color) group in a fixed,
// deterministic order, used by Placements and Square.
func (p *Position) groups() []struct {
	squares []xq.Square
	kind    xq.Kind
	color   xq.Color
} {
	return []struct {
		squares []xq.Square
		kind    xq.Kind
		color   xq.Color
	}{
		{[]xq.Square{p.RedKing}, xq.King, xq.Red},
		{[]xq.Square{p.BlackKing}, xq.King, xq.Black},
		{p.RedAdvisors, xq.Advisor, xq.Red},
		{p.BlackAdvisors, xq.Advisor, xq.Black},
		{p.RedBishops, xq.Bishop, xq.Red},
		{p.BlackBishops, xq.Bishop, xq.Black},
		{p.RedPawns, xq.Pawn, xq.Red},
		{p.BlackPawns, xq.Pawn, xq.Black},
		{p.RedKnights, xq.Knight, xq.Red},
		{p.BlackKnights, xq.Knight, xq.Black},
		{p.RedCannons, xq.Cannon, xq.Red},
		{p.BlackCannons, xq.Cannon, xq.Black},
		{p.RedRooks, xq.Rook, xq.Red},
		{p.BlackRooks, xq.Rook, xq.Black},
	}
}

// Placements flattens the position into a slice, in the teacher's
// board.Placement idiom.
func (p *Position) Placements() []Placement {
	var out []Placement
	for _, g := range p.groups() {
		for _, sq := range g.squares {
			out = append(out, Placement{Square: sq, Color: g.color, Kind: g.kind})
		}
	}
	return out
}

// Square returns the placement occupying sq, if any.
func (p *Position) Square(sq xq.Square) (Placement, bool) {
	for _, g := range p.groups() {
		for _, s := range g.squares {
			if s == sq {
				return Placement{Square: sq, Color: g.color, Kind: g.kind}, true
			}
		}
	}
	return Placement{}, false
}

// IsEmpty reports whether no piece occupies sq.
func (p *Position) IsEmpty(sq xq.Square) bool {
	_, ok := p.Square(sq)
	return !ok
}

// Validate checks the structural invariants from spec.md §3: every
// piece is on the board, no two pieces share a square, each king is
// confined to its palace, and no flying-general exposure exists. It
// does not check that advisors and bishops stand on their designated
// points (Hash rejects such positions), nor whether the side not to
// move is in check (that is a property of legality relative to move
// generation, checked by internal/movegen).
func (p *Position) Validate() error {
	seen := map[xq.Square]bool{}
	for _, pl := range p.Placements() {
		if !pl.Square.IsValid() {
			return fmt.Errorf("position: invalid square in placement %v", pl)
		}
		if seen[pl.Square] {
			return fmt.Errorf("position: duplicate placement at %v", pl.Square)
		}
		seen[pl.Square] = true
	}
	if !xq.InPalace(xq.Red, p.RedKing) || !xq.InPalace(xq.Black, p.BlackKing) {
		return fmt.Errorf("position: king outside palace")
	}
	if flyingGeneral(p) {
		return fmt.Errorf("position: flying general")
	}
	return nil
}

// flyingGeneral reports whether the two kings face each other on an
// empty file.
func flyingGeneral(p *Position) bool {
	if p.RedKing.Col() != p.BlackKing.Col() {
		return false
	}
	lo, hi := p.RedKing.Row(), p.BlackKing.Row()
	if lo > hi {
		lo, hi = hi, lo
	}
	for r := lo + 1; r < hi; r++ {
		if !p.IsEmpty(xq.NewSquare(r, p.RedKing.Col())) {
			return false
		}
	}
	return true
}

func sortSquares(s []xq.Square) []xq.Square {
	out := append([]xq.Square(nil), s...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
