package scheduler_test

import (
	"testing"

	"github.com/herohde/xiangqisolve/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateCanonicalTwoKingsOnly(t *testing.T) {
	tiers, err := scheduler.EnumerateCanonical(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"000000000000__"}, tiers)
}

func TestEnumerateCanonicalThreePiecesIncludesOneRookTier(t *testing.T) {
	tiers, err := scheduler.EnumerateCanonical(3)
	require.NoError(t, err)
	assert.Contains(t, tiers, "000000000000__")
	assert.Contains(t, tiers, "000000000001__")
	assert.NotContains(t, tiers, "000000000010__", "mirror of the canonical one-rook tier must not also appear")
}

func TestSchedulerReadyListAndMarkSolved(t *testing.T) {
	tiers, err := scheduler.EnumerateCanonical(3)
	require.NoError(t, err)

	s, err := scheduler.New(tiers)
	require.NoError(t, err)

	seenReady := map[string]bool{}
	for {
		tierStr, ok := s.Next()
		if !ok {
			break
		}
		seenReady[tierStr] = true
		_, err := s.MarkSolved(tierStr)
		require.NoError(t, err)
	}

	assert.Equal(t, len(tiers), len(seenReady), "every enumerated tier must eventually become ready")
	assert.Equal(t, 0, s.Remaining())
}

func TestSchedulerFailPrunesDependents(t *testing.T) {
	tiers := []string{"000000000000__", "000000000001__"}
	s, err := scheduler.New(tiers)
	require.NoError(t, err)

	// "000000000000__" (two kings) has no children so it is the only
	// ready tier; "000000000001__" (one black rook) depends on it because
	// capturing the rook leads there. Failing the two-kings tier must
	// leave the rook tier blocked.
	tierStr, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "000000000000__", tierStr)
	s.Fail(tierStr)
	assert.Equal(t, len(tiers)-1, s.Remaining())
	_, ok = s.Next()
	assert.False(t, ok, "a tier whose child failed must never become ready")
}
