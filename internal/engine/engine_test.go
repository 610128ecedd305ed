package engine_test

import (
	"context"
	"testing"

	"github.com/herohde/xiangqisolve/internal/db"
	"github.com/herohde/xiangqisolve/internal/engine"
	"github.com/herohde/xiangqisolve/internal/solver"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverSolveTierTwoKingsOnly(t *testing.T) {
	store, err := db.New(t.TempDir())
	require.NoError(t, err)

	d := engine.New(context.Background(), store, engine.WithOptions(engine.Options{Concurrency: lang.Some(2)}))
	stats, err := d.SolveTier(context.Background(), "000000000000__")
	require.NoError(t, err)

	// The domain has size 162 (81 king-pair arrangements x 2 sides to
	// move), but 27 of those arrangements face the kings on a shared
	// file with nothing between them (cols 3/4/5 x 3 red rows x 3 black
	// rows); position.Validate's flying-general check rejects all of
	// them, so Unhash/Children never reach those 54 cells and S3 leaves
	// them Unreached rather than counting them as Legal. The honored
	// invariant leaves Legal=Draw=108, diverging from spec scenario A's
	// stated 162 (which conflates domain size with legal-position count).
	assert.Equal(t, uint64(108), stats.Legal)
	assert.Equal(t, uint64(108), stats.Draw)
	assert.Equal(t, uint64(0), stats.Win)
	assert.Equal(t, uint64(0), stats.Lose)

	status, err := d.CheckTier("000000000000__")
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOK, status)
}

func TestDriverSolveAllSmallScope(t *testing.T) {
	store, err := db.New(t.TempDir())
	require.NoError(t, err)

	d := engine.New(context.Background(), store)
	results, err := d.SolveAll(context.Background(), 3)
	require.NoError(t, err)

	assert.Contains(t, results.Solved, "000000000000__")
	assert.Contains(t, results.Solved, "000000000001__")
	assert.Empty(t, results.Failed)
}

func TestDriverSolveTierInsufficientMemoryFails(t *testing.T) {
	store, err := db.New(t.TempDir())
	require.NoError(t, err)

	d := engine.New(context.Background(), store, engine.WithOptions(engine.Options{MemoryBudget: lang.Some(uint64(1))}))
	_, err = d.SolveTier(context.Background(), "000000000000__")
	require.Error(t, err)
}

func TestDriverSolveTierForceResolvesCommittedTier(t *testing.T) {
	store, err := db.New(t.TempDir())
	require.NoError(t, err)

	d := engine.New(context.Background(), store)
	first, err := d.SolveTier(context.Background(), "000000000000__")
	require.NoError(t, err)

	forced := engine.New(context.Background(), store, engine.WithOptions(engine.Options{Force: true}))
	second, err := forced.SolveTier(context.Background(), "000000000000__")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
