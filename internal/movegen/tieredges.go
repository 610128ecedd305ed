package movegen

import (
	"errors"
	"sort"

	"github.com/herohde/xiangqisolve/internal/position"
	"github.com/herohde/xiangqisolve/internal/tier"
)

// ErrIllegalPosition is returned by Children/NumChildren when the parent
// (tier,hash) decodes to an illegal or invalid position (spec.md §4.D:
// "a sentinel when the parent position is itself illegal").
var ErrIllegalPosition = errors.New("movegen: illegal parent position")

// IllegalPos is the sentinel NumChildren returns for an illegal parent.
const IllegalPos = -1

// ChildPos names a successor position: its tier string and hash within
// that tier.
type ChildPos struct {
	Tier string
	Hash uint64
}

// tierOf derives the tier a legal position belongs to directly from its
// piece inventory, rather than tracking it through tier.Edge deltas: the
// position is ground truth, so this is simpler and can't drift from the
// move rules that produced it.
func tierOf(pos *position.Position) *tier.Tier {
	t := &tier.Tier{}
	t.Counts[tier.RedAIdx] = len(pos.RedAdvisors)
	t.Counts[tier.BlackAIdx] = len(pos.BlackAdvisors)
	t.Counts[tier.RedBIdx] = len(pos.RedBishops)
	t.Counts[tier.BlackBIdx] = len(pos.BlackBishops)
	t.Counts[tier.RedPIdx] = len(pos.RedPawns)
	t.Counts[tier.BlackPIdx] = len(pos.BlackPawns)
	t.Counts[tier.RedNIdx] = len(pos.RedKnights)
	t.Counts[tier.BlackNIdx] = len(pos.BlackKnights)
	t.Counts[tier.RedCIdx] = len(pos.RedCannons)
	t.Counts[tier.BlackCIdx] = len(pos.BlackCannons)
	t.Counts[tier.RedRIdx] = len(pos.RedRooks)
	t.Counts[tier.BlackRIdx] = len(pos.BlackRooks)

	for _, sq := range pos.RedPawns {
		t.RedRows = append(t.RedRows, 9-sq.Row())
	}
	for _, sq := range pos.BlackPawns {
		t.BlackRows = append(t.BlackRows, sq.Row())
	}
	sort.Sort(sort.Reverse(sort.IntSlice(t.RedRows)))
	sort.Sort(sort.Reverse(sort.IntSlice(t.BlackRows)))
	return t
}

// Children enumerates every successor (tier,hash) reachable by one legal
// ply from the position named by (tierStr,hash).
func Children(tierStr string, hash uint64) ([]ChildPos, error) {
	t, err := tier.Parse(tierStr)
	if err != nil {
		return nil, err
	}
	pos, err := position.Unhash(t, hash)
	if err != nil {
		return nil, err
	}
	if pos.Invalid || !IsLegalPosition(pos) {
		return nil, ErrIllegalPosition
	}

	seen := map[ChildPos]bool{}
	var out []ChildPos
	for _, mv := range LegalMoves(pos) {
		child := ApplyMove(pos, mv)
		ct := tierOf(child)
		h, err := position.Hash(ct, child)
		if err != nil {
			continue
		}
		cp := ChildPos{Tier: ct.String(), Hash: h}
		if !seen[cp] {
			seen[cp] = true
			out = append(out, cp)
		}
	}
	return out, nil
}

// NumChildren is Children's cardinality, or IllegalPos for an illegal
// parent (spec.md §4.D).
func NumChildren(tierStr string, hash uint64) (int, error) {
	cs, err := Children(tierStr, hash)
	if errors.Is(err, ErrIllegalPosition) {
		return IllegalPos, nil
	}
	if err != nil {
		return 0, err
	}
	return len(cs), nil
}

// Parents enumerates every (tier,hash) in parentTierStr one legal ply
// before (tierStr,hash). It is implemented as the direct logical dual of
// Children — scanning every position of the parent tier and keeping
// those whose Children include the target — rather than a dedicated
// reverse-move generator. This guarantees the Children/Parents inverse
// invariant (spec.md §4.D point 9) holds by construction, at the cost of
// an O(|parentTier|) scan per call; see DESIGN.md for why this trade is
// acceptable here. change narrows nothing further: the (tier,hash)
// equality check already implies it, but it is accepted to match the
// operation's spec.md signature.
func Parents(tierStr string, hash uint64, parentTierStr string, change tier.Change) ([]uint64, error) {
	_ = change
	pt, err := tier.Parse(parentTierStr)
	if err != nil {
		return nil, err
	}
	target := ChildPos{Tier: tierStr, Hash: hash}

	var out []uint64
	size := pt.Size()
	for h := uint64(0); h < size; h++ {
		children, err := Children(parentTierStr, h)
		if err != nil {
			continue
		}
		for _, c := range children {
			if c == target {
				out = append(out, h)
				break
			}
		}
	}
	return out, nil
}
