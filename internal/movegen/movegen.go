// Package movegen implements Xiangqi move legality: per-piece pseudo-move
// generation, the own-king-safety and flying-general legality filters,
// and the forward/reverse tier-level enumeration the retrograde engine
// drives from (spec.md §4.D).
package movegen

import (
	"github.com/herohde/xiangqisolve/internal/position"
	"github.com/herohde/xiangqisolve/internal/xq"
)

// Move is a single ply: a piece moving from one square to another,
// possibly capturing whatever sits on To.
type Move struct {
	From, To  xq.Square
	IsCapture bool
}

func destsOf(pos *position.Position, sq xq.Square, kind xq.Kind, color xq.Color) []xq.Square {
	switch kind {
	case xq.King:
		return kingDests(pos, sq, color)
	case xq.Advisor:
		return advisorDests(pos, sq, color)
	case xq.Bishop:
		return bishopDests(pos, sq, color)
	case xq.Knight:
		return knightDests(pos, sq, color)
	case xq.Cannon:
		return cannonDests(pos, sq, color)
	case xq.Rook:
		return rookDests(pos, sq, color)
	case xq.Pawn:
		return pawnDests(pos, sq, color)
	default:
		panic("movegen: unknown kind")
	}
}

func ownPiece(pos *position.Position, sq xq.Square, color xq.Color) bool {
	pl, ok := pos.Square(sq)
	return ok && pl.Color == color
}

func enemyPiece(pos *position.Position, sq xq.Square, color xq.Color) bool {
	pl, ok := pos.Square(sq)
	return ok && pl.Color != color
}

var orthogonal = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var diagonal = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

func kingDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	var out []xq.Square
	for _, d := range orthogonal {
		to := xq.NewSquare(sq.Row()+d[0], sq.Col()+d[1])
		if to.IsValid() && xq.InPalace(color, to) && !ownPiece(pos, to, color) {
			out = append(out, to)
		}
	}
	return out
}

func advisorDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	var out []xq.Square
	for _, d := range diagonal {
		to := xq.NewSquare(sq.Row()+d[0], sq.Col()+d[1])
		if to.IsValid() && xq.InPalace(color, to) && !ownPiece(pos, to, color) {
			out = append(out, to)
		}
	}
	return out
}

func bishopDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	var out []xq.Square
	for _, pt := range xq.BishopPoints(color) {
		mid := xq.BishopMidpoint(sq, pt)
		if !mid.IsValid() || !pos.IsEmpty(mid) {
			continue
		}
		if !ownPiece(pos, pt, color) {
			out = append(out, pt)
		}
	}
	return out
}

var knightLegs = [8][3]int{
	// {dRow, dCol, legIsRowOffset(1) or colOffset(0)} — leg is the
	// orthogonal neighbor along the "long" axis of the L-move.
	{-2, -1, 0}, {-2, 1, 0}, {2, -1, 0}, {2, 1, 0},
	{-1, -2, 1}, {1, -2, 1}, {-1, 2, 1}, {1, 2, 1},
}

func knightDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	var out []xq.Square
	for _, l := range knightLegs {
		to := xq.NewSquare(sq.Row()+l[0], sq.Col()+l[1])
		if !to.IsValid() {
			continue
		}
		var leg xq.Square
		if l[2] == 0 {
			leg = xq.NewSquare(sq.Row()+l[0]/2, sq.Col())
		} else {
			leg = xq.NewSquare(sq.Row(), sq.Col()+l[1]/2)
		}
		if !leg.IsValid() || !pos.IsEmpty(leg) {
			continue
		}
		if !ownPiece(pos, to, color) {
			out = append(out, to)
		}
	}
	return out
}

func slide(pos *position.Position, sq xq.Square, color xq.Color, isCannon bool) []xq.Square {
	var out []xq.Square
	for _, d := range orthogonal {
		r, c := sq.Row(), sq.Col()
		screened := false
		for {
			r += d[0]
			c += d[1]
			to := xq.NewSquare(r, c)
			if !to.IsValid() {
				break
			}
			occupied := !pos.IsEmpty(to)
			if !isCannon {
				if !occupied {
					out = append(out, to)
					continue
				}
				if enemyPiece(pos, to, color) {
					out = append(out, to)
				}
				break
			}
			// Cannon: quiet slide until the first blocker (the
			// "screen"); capture only the first piece beyond it.
			if !screened {
				if !occupied {
					out = append(out, to)
					continue
				}
				screened = true
				continue
			}
			if occupied {
				if enemyPiece(pos, to, color) {
					out = append(out, to)
				}
				break
			}
		}
	}
	return out
}

func cannonDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	return slide(pos, sq, color, true)
}

func rookDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	return slide(pos, sq, color, false)
}

func pawnDests(pos *position.Position, sq xq.Square, color xq.Color) []xq.Square {
	var out []xq.Square
	fwd := xq.NewSquare(sq.Row()+xq.PawnForwardDir(color), sq.Col())
	if fwd.IsValid() && !ownPiece(pos, fwd, color) {
		out = append(out, fwd)
	}
	if xq.HasCrossedRiver(color, sq.Row()) {
		for _, dc := range []int{-1, 1} {
			side := xq.NewSquare(sq.Row(), sq.Col()+dc)
			if side.IsValid() && !ownPiece(pos, side, color) {
				out = append(out, side)
			}
		}
	}
	return out
}

// kingSquare returns the square of color's king.
func kingSquare(pos *position.Position, color xq.Color) xq.Square {
	if color == xq.Red {
		return pos.RedKing
	}
	return pos.BlackKing
}

// kingAttacked reports whether color's king is attacked by the opponent.
func kingAttacked(pos *position.Position, color xq.Color) bool {
	target := kingSquare(pos, color)
	opp := color.Opponent()
	for _, pl := range pos.Placements() {
		if pl.Color != opp {
			continue
		}
		for _, to := range destsOf(pos, pl.Square, pl.Kind, opp) {
			if to == target {
				return true
			}
		}
	}
	return false
}

// IsLegalPosition reports whether pos satisfies the structural and
// check invariants of spec.md §3/§4.D: no flying general, and the
// mover (the side NOT to move, who just played) did not leave their
// own king attacked by the side now to move. (This resolves an
// ambiguous pronoun reference in spec.md §3's invariant text in favor
// of the standard Xiangqi/chess "own king safety" rule; see DESIGN.md.)
func IsLegalPosition(pos *position.Position) bool {
	if err := pos.Validate(); err != nil {
		return false
	}
	mover := pos.ToMove.Opponent()
	return !kingAttacked(pos, mover)
}

// LegalMoves enumerates every legal move for the side to move.
func LegalMoves(pos *position.Position) []Move {
	var out []Move
	for _, pl := range pos.Placements() {
		if pl.Color != pos.ToMove {
			continue
		}
		for _, to := range destsOf(pos, pl.Square, pl.Kind, pl.Color) {
			mv := Move{From: pl.Square, To: to, IsCapture: enemyPiece(pos, to, pl.Color)}
			child := ApplyMove(pos, mv)
			if IsLegalPosition(child) {
				out = append(out, mv)
			}
		}
	}
	return out
}

// ApplyMove returns the position resulting from making mv in pos. It
// does not check legality.
func ApplyMove(pos *position.Position, mv Move) *position.Position {
	next := &position.Position{
		RedKing: pos.RedKing, BlackKing: pos.BlackKing,
		RedAdvisors: copySquares(pos.RedAdvisors), BlackAdvisors: copySquares(pos.BlackAdvisors),
		RedBishops: copySquares(pos.RedBishops), BlackBishops: copySquares(pos.BlackBishops),
		RedPawns: copySquares(pos.RedPawns), BlackPawns: copySquares(pos.BlackPawns),
		RedKnights: copySquares(pos.RedKnights), BlackKnights: copySquares(pos.BlackKnights),
		RedCannons: copySquares(pos.RedCannons), BlackCannons: copySquares(pos.BlackCannons),
		RedRooks: copySquares(pos.RedRooks), BlackRooks: copySquares(pos.BlackRooks),
		ToMove: pos.ToMove.Opponent(),
	}
	removeSquare(next, mv.To) // remove any captured piece
	moveSquare(next, mv.From, mv.To)
	return next
}

func copySquares(s []xq.Square) []xq.Square {
	return append([]xq.Square(nil), s...)
}

func group(next *position.Position, kind xq.Kind, color xq.Color) *[]xq.Square {
	switch {
	case kind == xq.Advisor && color == xq.Red:
		return &next.RedAdvisors
	case kind == xq.Advisor && color == xq.Black:
		return &next.BlackAdvisors
	case kind == xq.Bishop && color == xq.Red:
		return &next.RedBishops
	case kind == xq.Bishop && color == xq.Black:
		return &next.BlackBishops
	case kind == xq.Pawn && color == xq.Red:
		return &next.RedPawns
	case kind == xq.Pawn && color == xq.Black:
		return &next.BlackPawns
	case kind == xq.Knight && color == xq.Red:
		return &next.RedKnights
	case kind == xq.Knight && color == xq.Black:
		return &next.BlackKnights
	case kind == xq.Cannon && color == xq.Red:
		return &next.RedCannons
	case kind == xq.Cannon && color == xq.Black:
		return &next.BlackCannons
	case kind == xq.Rook && color == xq.Red:
		return &next.RedRooks
	case kind == xq.Rook && color == xq.Black:
		return &next.BlackRooks
	default:
		return nil
	}
}

func removeSquare(next *position.Position, sq xq.Square) {
	pl, ok := next.Square(sq)
	if !ok {
		return
	}
	if pl.Kind == xq.King {
		return // kings are never captured in a legal game tree
	}
	g := group(next, pl.Kind, pl.Color)
	for i, s := range *g {
		if s == sq {
			*g = append((*g)[:i], (*g)[i+1:]...)
			return
		}
	}
}

func moveSquare(next *position.Position, from, to xq.Square) {
	pl, ok := next.Square(from)
	if !ok {
		return
	}
	if pl.Kind == xq.King {
		if pl.Color == xq.Red {
			next.RedKing = to
		} else {
			next.BlackKing = to
		}
		return
	}
	g := group(next, pl.Kind, pl.Color)
	for i, s := range *g {
		if s == from {
			(*g)[i] = to
			return
		}
	}
}
