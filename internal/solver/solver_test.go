package solver_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/herohde/xiangqisolve/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB is an in-memory solver.DB used only to exercise SolveTier's
// control flow; it starts empty, so a tier's child tiers must be solved
// into it before the tier itself.
type fakeDB struct {
	values map[string][]solver.Value
	stats  map[string]solver.Stats
}

func newFakeDB() *fakeDB {
	return &fakeDB{values: map[string][]solver.Value{}, stats: map[string]solver.Stats{}}
}

func (db *fakeDB) LoadValues(tierStr string) ([]solver.Value, error) {
	v, ok := db.values[tierStr]
	if !ok {
		return nil, fmt.Errorf("fakeDB: no values for %q", tierStr)
	}
	return v, nil
}

func (db *fakeDB) StoreValues(tierStr string, values []solver.Value) error {
	cp := make([]solver.Value, len(values))
	copy(cp, values)
	db.values[tierStr] = cp
	return nil
}

func (db *fakeDB) WriteStats(tierStr string, stats solver.Stats) error {
	db.stats[tierStr] = stats
	return nil
}

func (db *fakeDB) ReadStats(tierStr string) (solver.Stats, error) {
	s, ok := db.stats[tierStr]
	if !ok {
		return solver.Stats{}, fmt.Errorf("fakeDB: no stats for %q", tierStr)
	}
	return s, nil
}

func (db *fakeDB) CheckTier(tierStr string) (solver.CheckStatus, error) {
	if _, ok := db.stats[tierStr]; ok {
		return solver.StatusOK, nil
	}
	return solver.StatusMissing, nil
}

// The single-black-rook tier has no pawns, so its only child tier is
// the two-kings tier reached when the rook is captured; that child is
// solved into the fake DB first. Positions with no legal move are
// immediate loses.
func TestSolveTierSingleRookEndgame(t *testing.T) {
	db := newFakeDB()
	_, err := solver.SolveTier(context.Background(), db, "000000000000__")
	require.NoError(t, err)

	stats, err := solver.SolveTier(context.Background(), db, "000000000001__", solver.WithConcurrency(4))
	require.NoError(t, err)

	assert.Equal(t, stats.Win+stats.Lose+stats.Draw, stats.Legal)
	assert.True(t, stats.Lose > 0, "expected at least one primitive lose (no legal move) position")

	stored, err := db.LoadValues("000000000001__")
	require.NoError(t, err)
	assert.Equal(t, int(stats.TierSize), len(stored))

	// An unforced re-solve of a committed tier short-circuits at S0 and
	// returns the committed Stats without touching the frontier.
	stats2, err := solver.SolveTier(context.Background(), db, "000000000001__")
	require.NoError(t, err)
	assert.Equal(t, stats, stats2)

	// A forced re-solve must reproduce byte-identical values (the S6
	// write-through duplicate-solve check).
	stats3, err := solver.SolveTier(context.Background(), db, "000000000001__", solver.WithForce())
	require.NoError(t, err)
	assert.Equal(t, stats, stats3)
}

func TestSolveTierRejectsNonCanonical(t *testing.T) {
	db := newFakeDB()
	// "000000000010__" (one red rook, zero black) is the mirror of the
	// canonical "000000000001__" and sorts lexicographically larger, so
	// it is itself non-canonical.
	_, err := solver.SolveTier(context.Background(), db, "000000000010__")
	require.Error(t, err)
}

func TestSolveTierRejectsInsufficientMemory(t *testing.T) {
	db := newFakeDB()
	_, err := solver.SolveTier(context.Background(), db, "000000000001__", solver.WithMemoryBudget(1))
	require.ErrorIs(t, err, solver.ErrInsufficientMemory)
}
