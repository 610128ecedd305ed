package db_test

import (
	"os"
	"testing"

	"github.com/herohde/xiangqisolve/internal/db"
	"github.com/herohde/xiangqisolve/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	s, err := db.New(t.TempDir())
	require.NoError(t, err)

	tierStr := "000000000001__"
	values := []solver.Value{
		solver.ValueUnreached,
		solver.EncodeLose(0),
		solver.EncodeWin(1),
		solver.ValueDraw,
	}

	status, err := s.CheckTier(tierStr)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusMissing, status)

	require.NoError(t, s.StoreValues(tierStr, values))

	status, err = s.CheckTier(tierStr)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusMissing, status, "values alone, no .stat yet, is still MISSING")

	stats := solver.Stats{
		Legal: 3, Win: 1, Lose: 1, Draw: 1,
		RedLongestWinRemoteness: 5, RedLongestWinHash: 42,
		BlackLongestWinRemoteness: 3, BlackLongestWinHash: 7,
	}
	require.NoError(t, s.WriteStats(tierStr, stats))

	status, err = s.CheckTier(tierStr)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOK, status)

	got, err := s.LoadValues(tierStr)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	gotStats, err := s.ReadStats(tierStr)
	require.NoError(t, err)
	assert.Equal(t, stats, gotStats)
}

func TestCheckTierStatCorrupted(t *testing.T) {
	dir := t.TempDir()
	s, err := db.New(dir)
	require.NoError(t, err)

	tierStr := "000000000001__"
	require.NoError(t, s.StoreValues(tierStr, []solver.Value{solver.ValueDraw}))

	// Commit a valid stat sidecar, then overwrite it directly with a
	// malformed (wrong-size) one, bypassing WriteStats, to simulate a
	// truncated/corrupted commit marker.
	require.NoError(t, s.WriteStats(tierStr, solver.Stats{}))
	badStatPath := dir + "/000000000001/000000000001__.stat"
	require.NoError(t, os.WriteFile(badStatPath, []byte{1, 2, 3}, 0666))

	status, err := s.CheckTier(tierStr)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusStatCorrupted, status)
}
