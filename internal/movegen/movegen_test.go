package movegen_test

import (
	"testing"

	"github.com/herohde/xiangqisolve/internal/movegen"
	"github.com/herohde/xiangqisolve/internal/position"
	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/herohde/xiangqisolve/internal/xq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLegalPositionRejectsFlyingGeneral(t *testing.T) {
	pos := &position.Position{
		RedKing:   xq.NewSquare(1, 4),
		BlackKing: xq.NewSquare(8, 4),
		ToMove:    xq.Red,
	}
	assert.False(t, movegen.IsLegalPosition(pos))
}

func TestIsLegalPositionAcceptsOrdinaryKings(t *testing.T) {
	pos := &position.Position{
		RedKing:   xq.NewSquare(1, 3),
		BlackKing: xq.NewSquare(8, 5),
		ToMove:    xq.Red,
	}
	assert.True(t, movegen.IsLegalPosition(pos))
}

func TestIsLegalPositionRejectsMoverLeftInCheck(t *testing.T) {
	// Red is to move, so black made the last move; the red rook on the
	// file attacks the black king, meaning black (who just moved) left
	// their own king capturable.
	pos := &position.Position{
		RedKing:   xq.NewSquare(1, 4),
		BlackKing: xq.NewSquare(8, 4),
		RedRooks:  []xq.Square{xq.NewSquare(4, 4)},
		ToMove:    xq.Red,
	}
	assert.False(t, movegen.IsLegalPosition(pos))
}

func TestRookSlideStopsAtFirstBlocker(t *testing.T) {
	pos := &position.Position{
		RedKing:   xq.NewSquare(0, 3),
		BlackKing: xq.NewSquare(9, 5),
		RedRooks:  []xq.Square{xq.NewSquare(5, 0)},
		BlackRooks: []xq.Square{xq.NewSquare(5, 4)},
		ToMove:    xq.Red,
	}
	moves := movegen.LegalMoves(pos)
	sawCapture := false
	for _, mv := range moves {
		if mv.From == xq.NewSquare(5, 0) && mv.To == xq.NewSquare(5, 4) {
			sawCapture = true
			assert.True(t, mv.IsCapture)
		}
		// The rook must never "jump" past the black rook on the same rank.
		assert.False(t, mv.From == xq.NewSquare(5, 0) && mv.To == xq.NewSquare(5, 8))
	}
	assert.True(t, sawCapture)
}

func TestCannonRequiresExactlyOneScreen(t *testing.T) {
	pos := &position.Position{
		RedKing:    xq.NewSquare(0, 3),
		BlackKing:  xq.NewSquare(9, 5),
		RedCannons: []xq.Square{xq.NewSquare(5, 0)},
		RedPawns:   []xq.Square{xq.NewSquare(5, 2)},
		BlackRooks: []xq.Square{xq.NewSquare(5, 4)},
		ToMove:     xq.Red,
	}
	moves := movegen.LegalMoves(pos)
	capture := false
	quietPastScreen := false
	for _, mv := range moves {
		if mv.From != xq.NewSquare(5, 0) {
			continue
		}
		if mv.To == xq.NewSquare(5, 4) {
			capture = true
		}
		if mv.To == xq.NewSquare(5, 3) {
			quietPastScreen = true
		}
	}
	assert.True(t, capture, "cannon should capture the piece beyond its single screen")
	assert.False(t, quietPastScreen, "cannon may not make a quiet move past its screen")
}

func TestKnightLegBlock(t *testing.T) {
	pos := &position.Position{
		RedKing:    xq.NewSquare(0, 3),
		BlackKing:  xq.NewSquare(9, 5),
		RedKnights: []xq.Square{xq.NewSquare(5, 4)},
		RedPawns:   []xq.Square{xq.NewSquare(4, 4)},
		ToMove:     xq.Red,
	}
	moves := movegen.LegalMoves(pos)
	for _, mv := range moves {
		if mv.From == xq.NewSquare(5, 4) {
			assert.NotEqual(t, xq.NewSquare(3, 3), mv.To, "leg at (4,4) blocks this move")
			assert.NotEqual(t, xq.NewSquare(3, 5), mv.To, "leg at (4,4) blocks this move")
		}
	}
}

func TestPawnSidewaysOnlyAfterRiver(t *testing.T) {
	pos := &position.Position{
		RedKing:  xq.NewSquare(0, 3),
		BlackKing: xq.NewSquare(9, 5),
		RedPawns: []xq.Square{xq.NewSquare(3, 4), xq.NewSquare(5, 4)},
		ToMove:   xq.Red,
	}
	moves := movegen.LegalMoves(pos)
	var beforeRiverDests, afterRiverDests []xq.Square
	for _, mv := range moves {
		switch mv.From {
		case xq.NewSquare(3, 4):
			beforeRiverDests = append(beforeRiverDests, mv.To)
		case xq.NewSquare(5, 4):
			afterRiverDests = append(afterRiverDests, mv.To)
		}
	}
	assert.ElementsMatch(t, []xq.Square{xq.NewSquare(4, 4)}, beforeRiverDests)
	assert.ElementsMatch(t, []xq.Square{xq.NewSquare(6, 4), xq.NewSquare(5, 3), xq.NewSquare(5, 5)}, afterRiverDests)
}

func TestChildrenOfSingleRookTierStayInTier(t *testing.T) {
	tr, err := tier.Parse("000000000010__")
	require.NoError(t, err)

	pos := &position.Position{
		RedKing:   xq.NewSquare(1, 3),
		BlackKing: xq.NewSquare(8, 5),
		RedRooks:  []xq.Square{xq.NewSquare(0, 0)},
		ToMove:    xq.Red,
	}
	require.True(t, movegen.IsLegalPosition(pos))

	h, err := position.Hash(tr, pos)
	require.NoError(t, err)

	children, err := movegen.Children(tr.String(), h)
	require.NoError(t, err)
	require.NotEmpty(t, children)

	// A lone rook has nothing to capture, so every move is quiet and
	// the tier never changes.
	for _, c := range children {
		assert.Equal(t, tr.String(), c.Tier)
		ct, err := tier.Parse(c.Tier)
		require.NoError(t, err)
		require.NoError(t, ct.IsLegal())
	}
}

func TestNumChildrenIllegalParentSentinel(t *testing.T) {
	tr, err := tier.Parse("000000000000__")
	require.NoError(t, err)

	// With no other pieces on board, every digit domain in the hash
	// except the two king/advisor digits (9 each) and toMove collapses to
	// 1, so hash = (ka1*9+ka2)*2+toMove. ka index
	// 4 is the palace center for both colors, giving kings at (1,4) and
	// (8,4): same file, nothing between them, a flying-general position.
	const ka1, ka2, toMove = 4, 4, uint64(0)
	h := (ka1*9+ka2)*2 + toMove

	got, err := position.Unhash(tr, h)
	require.NoError(t, err)
	require.True(t, got.Invalid, "expected this hash to decode to a flying-general (invalid) position")

	n, err := movegen.NumChildren(tr.String(), h)
	require.NoError(t, err)
	assert.Equal(t, movegen.IllegalPos, n)
}

func TestParentsIsInverseOfChildren(t *testing.T) {
	tr, err := tier.Parse("000000000000__")
	require.NoError(t, err)

	pos := &position.Position{
		RedKing:   xq.NewSquare(1, 3),
		BlackKing: xq.NewSquare(8, 5),
		ToMove:    xq.Red,
	}
	h, err := position.Hash(tr, pos)
	require.NoError(t, err)

	children, err := movegen.Children(tr.String(), h)
	require.NoError(t, err)
	require.NotEmpty(t, children)

	child := children[0]
	parents, err := movegen.Parents(child.Tier, child.Hash, tr.String(), tier.Change{})
	require.NoError(t, err)
	assert.Contains(t, parents, h)
}
