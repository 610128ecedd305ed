// Package frontier implements the per-remoteness win/lose position
// queues the retrograde engine drains during propagation (spec.md
// §4.E): win_fr and lose_fr, each bucketed by remoteness with
// per-bucket locking so solver workers can append concurrently, plus
// per-child-tier divider ranges recording which batch of a bucket came
// from which already-solved child tier.
package frontier

import (
	"sort"
	"sync"
)

// Side is which frontier a position belongs to.
type Side uint8

const (
	Win Side = iota
	Lose
)

func (s Side) String() string {
	if s == Win {
		return "win"
	}
	return "lose"
}

// bucket holds every position at one (side, remoteness) pair, plus the
// index ranges recording which child tier's batch produced which slice
// of hashes (orig:frontier.c's divider array, re-expressed as a map
// since child tiers are named, not small integers, in this port).
type bucket struct {
	mu       sync.Mutex
	hashes   []uint64
	dividers map[string][2]int
}

// Frontier is the full set of win/lose buckets for one tier solve.
type Frontier struct {
	mu      sync.RWMutex
	buckets [2]map[int]*bucket // [side][remoteness]
}

// New returns an empty Frontier.
func New() *Frontier {
	return &Frontier{
		buckets: [2]map[int]*bucket{Win: {}, Lose: {}},
	}
}

func (f *Frontier) bucketFor(side Side, remoteness int) *bucket {
	f.mu.RLock()
	b, ok := f.buckets[side][remoteness]
	f.mu.RUnlock()
	if ok {
		return b
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok = f.buckets[side][remoteness]; ok {
		return b
	}
	b = &bucket{}
	f.buckets[side][remoteness] = b
	return b
}

// Add appends a single position hash to the (side, remoteness) bucket.
// Safe for concurrent use across different buckets and the same bucket.
func (f *Frontier) Add(side Side, remoteness int, hash uint64) {
	b := f.bucketFor(side, remoteness)
	b.mu.Lock()
	b.hashes = append(b.hashes, hash)
	b.mu.Unlock()
}

// AddBatch appends every hash in hashes to the (side, remoteness)
// bucket as one contiguous run, recording it under childTier so
// DividerFor can later recover exactly that range. Used when an entire
// child tier's worth of solved positions seeds the frontier in one pass
// (spec.md §4.F stage S1), and for each batch of the solving tier's own
// newly decided positions.
func (f *Frontier) AddBatch(side Side, remoteness int, childTier string, hashes []uint64) {
	if len(hashes) == 0 {
		return
	}
	b := f.bucketFor(side, remoteness)
	b.mu.Lock()
	start := len(b.hashes)
	b.hashes = append(b.hashes, hashes...)
	end := len(b.hashes)
	if b.dividers == nil {
		b.dividers = map[string][2]int{}
	}
	b.dividers[childTier] = [2]int{start, end}
	b.mu.Unlock()
}

// DividerFor returns the [start,end) index range within the (side,
// remoteness) bucket's current contents that came from childTier's
// batch, if any.
func (f *Frontier) DividerFor(side Side, remoteness int, childTier string) (int, int, bool) {
	b := f.bucketFor(side, remoteness)
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.dividers[childTier]
	return r[0], r[1], ok
}

// Len reports how many positions currently sit in the (side,
// remoteness) bucket.
func (f *Frontier) Len(side Side, remoteness int) int {
	b := f.bucketFor(side, remoteness)
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hashes)
}

// Release drains and returns every hash in the (side, remoteness)
// bucket, clearing it so the next pass starts fresh (orig:frontier.c's
// release-a-level-back-to-the-pool semantics, here just letting the GC
// reclaim the backing array).
func (f *Frontier) Release(side Side, remoteness int) []uint64 {
	b := f.bucketFor(side, remoteness)
	b.mu.Lock()
	out := b.hashes
	b.hashes = nil
	b.dividers = nil
	b.mu.Unlock()
	return out
}

// ReleaseGrouped drains the (side, remoteness) bucket and splits its
// hashes back into per-source-tier groups using the recorded dividers,
// so a caller that mixes entries from several tiers in one bucket (the
// tier being solved itself, plus every already-solved child tier) can
// recover which tier each hash belongs to.
func (f *Frontier) ReleaseGrouped(side Side, remoteness int) map[string][]uint64 {
	b := f.bucketFor(side, remoteness)
	b.mu.Lock()
	hashes := b.hashes
	dividers := b.dividers
	b.hashes = nil
	b.dividers = nil
	b.mu.Unlock()

	out := map[string][]uint64{}
	for tierName, rng := range dividers {
		start, end := rng[0], rng[1]
		if start < 0 || end > len(hashes) || start > end {
			continue
		}
		out[tierName] = append(out[tierName], hashes[start:end]...)
	}
	return out
}

// Remotenesses returns every remoteness level with at least one
// position currently queued on side, ascending.
func (f *Frontier) Remotenesses(side Side) []int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []int
	for r, b := range f.buckets[side] {
		b.mu.Lock()
		nonEmpty := len(b.hashes) > 0
		b.mu.Unlock()
		if nonEmpty {
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}
