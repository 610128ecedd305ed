package tier_test

import (
	"testing"

	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	s := "100010000000_4_"
	parsed, err := tier.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, s, parsed.String())
	assert.Equal(t, 1, parsed.Counts[tier.RedAIdx])
	assert.Equal(t, []int{4}, parsed.RedRows)
}

func TestParseMalformed(t *testing.T) {
	_, err := tier.Parse("0000")
	assert.ErrorIs(t, err, tier.ErrMalformed)

	_, err = tier.Parse("00000000000__")
	assert.ErrorIs(t, err, tier.ErrMalformed)
}

func TestIsLegalCaps(t *testing.T) {
	require.NoError(t, tier.IsLegal("000000000000__"))
	assert.ErrorIs(t, tier.IsLegal("300000000000__"), tier.ErrIllegal)
}

func TestIsLegalRowOrder(t *testing.T) {
	// two red pawns, rows must be non-increasing
	assert.NoError(t, tier.IsLegal("000020000000_43_"))
	assert.Error(t, tier.IsLegal("000020000000_34_"))
}

func TestIsLegalSymmetricExclusion(t *testing.T) {
	s := "000055000000_65432_65432"
	assert.ErrorIs(t, tier.IsLegal(s), tier.ErrIllegal)
}

func TestSizeSmallestTier(t *testing.T) {
	size, err := tier.Size("000000000000__")
	require.NoError(t, err)
	assert.Equal(t, uint64(162), size)
}

func TestMirrorInvolution(t *testing.T) {
	s := "100010000000_4_"
	m, err := tier.Mirror(s)
	require.NoError(t, err)
	assert.Equal(t, "010001000000__4", m)

	back, err := tier.Mirror(m)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestCanonicalPicksLexSmaller(t *testing.T) {
	s := "100010000000_4_"
	c, err := tier.Canonical(s)
	require.NoError(t, err)
	assert.LessOrEqual(t, c, mirrorOrPanic(t, s))
}

func mirrorOrPanic(t *testing.T, s string) string {
	m, err := tier.Mirror(s)
	require.NoError(t, err)
	return m
}

func TestChildrenAreLegalAndReversible(t *testing.T) {
	s := "000000000010__" // one red rook
	edges, err := tier.Children(s)
	require.NoError(t, err)
	require.NotEmpty(t, edges)

	for _, e := range edges {
		require.NoError(t, tier.IsLegal(e.Tier))

		parents, err := tier.Parents(e.Tier)
		require.NoError(t, err)

		found := false
		for _, p := range parents {
			if p.Tier == s {
				found = true
				break
			}
		}
		assert.True(t, found, "children/parents must be inverse for %q -> %q", s, e.Tier)
	}
}

func TestParentsReversesPawnForwardStep(t *testing.T) {
	// One red pawn at digit 5: its only reverse (non-capture) transition
	// is a pawn one row further back, at digit 6.
	s := "000010000000_5_"
	parents, err := tier.Parents(s)
	require.NoError(t, err)

	found := false
	for _, p := range parents {
		if p.Tier == "000010000000_6_" {
			found = true
			break
		}
	}
	assert.True(t, found, "expected %q among parents of %q, got %v", "000010000000_6_", s, parents)
}

func TestRequiredMemPositive(t *testing.T) {
	mem, err := tier.RequiredMem("000000000010__")
	require.NoError(t, err)
	assert.Greater(t, mem, uint64(0))
}
