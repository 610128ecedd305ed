package frontier_test

import (
	"sync"
	"testing"

	"github.com/herohde/xiangqisolve/internal/frontier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRelease(t *testing.T) {
	f := frontier.New()
	f.Add(frontier.Win, 0, 10)
	f.Add(frontier.Win, 0, 11)
	f.Add(frontier.Lose, 1, 20)

	assert.Equal(t, 2, f.Len(frontier.Win, 0))
	assert.Equal(t, 1, f.Len(frontier.Lose, 1))

	got := f.Release(frontier.Win, 0)
	assert.ElementsMatch(t, []uint64{10, 11}, got)
	assert.Equal(t, 0, f.Len(frontier.Win, 0))
}

func TestAddBatchRecordsDividers(t *testing.T) {
	f := frontier.New()
	f.AddBatch(frontier.Win, 2, "000000000010__", []uint64{1, 2, 3})
	f.AddBatch(frontier.Win, 2, "000000000001__", []uint64{4, 5})

	s1, e1, ok := f.DividerFor(frontier.Win, 2, "000000000010__")
	require.True(t, ok)
	assert.Equal(t, 0, s1)
	assert.Equal(t, 3, e1)

	s2, e2, ok := f.DividerFor(frontier.Win, 2, "000000000001__")
	require.True(t, ok)
	assert.Equal(t, 3, s2)
	assert.Equal(t, 5, e2)

	assert.Equal(t, 5, f.Len(frontier.Win, 2))
}

func TestRemotenessesSorted(t *testing.T) {
	f := frontier.New()
	f.Add(frontier.Lose, 5, 1)
	f.Add(frontier.Lose, 1, 2)
	f.Add(frontier.Lose, 3, 3)

	assert.Equal(t, []int{1, 3, 5}, f.Remotenesses(frontier.Lose))
}

func TestConcurrentAddIsSafe(t *testing.T) {
	f := frontier.New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Add(frontier.Win, 0, uint64(i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, f.Len(frontier.Win, 0))
}

func TestDividerForMissingChildTier(t *testing.T) {
	f := frontier.New()
	_, _, ok := f.DividerFor(frontier.Win, 0, "nope")
	assert.False(t, ok)
}
