package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/herohde/xiangqisolve/internal/frontier"
	"github.com/herohde/xiangqisolve/internal/movegen"
	"github.com/herohde/xiangqisolve/internal/position"
	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/herohde/xiangqisolve/internal/xq"
	"github.com/seekerror/logw"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNotCanonical is returned when SolveTier is asked to solve a
	// non-canonical tier; the scheduler solves the canonical twin
	// instead (spec.md §4.H step 2).
	ErrNotCanonical = errors.New("solver: tier is not canonical")
	// ErrInsufficientMemory is stage S0's gate failure.
	ErrInsufficientMemory = errors.New("solver: insufficient memory")
	// ErrDegenerateTier is returned for a tier whose size computation
	// overflowed or is otherwise zero.
	ErrDegenerateTier = errors.New("solver: degenerate tier size")
	// ErrDuplicateMismatch is returned when a re-solve of an
	// already-committed tier produces different values (spec.md §4.G
	// write-through check) — this indicates a solver regression.
	ErrDuplicateMismatch = errors.New("solver: re-solve values differ from committed values")
)

// SolveTier solves the canonical tier tierStr against db, which must
// already hold every canonical child tier's values, implementing
// stages S0-S6 (spec.md §4.F).
func SolveTier(ctx context.Context, db DB, tierStr string, opts ...Option) (Stats, error) {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	concurrency := 1
	if n, ok := o.Concurrency.V(); ok && n > 0 {
		concurrency = n
	}

	// S0 — Gate.
	canonical, err := tier.IsCanonical(tierStr)
	if err != nil {
		return Stats{}, err
	}
	if !canonical {
		return Stats{}, fmt.Errorf("%w: %q", ErrNotCanonical, tierStr)
	}
	t, err := tier.Parse(tierStr)
	if err != nil {
		return Stats{}, err
	}
	requiredMem, err := t.RequiredMem()
	if err != nil {
		return Stats{}, err
	}
	if budget, ok := o.MemoryBudget.V(); ok && requiredMem > budget {
		return Stats{}, fmt.Errorf("%w: tier %q needs %d bytes, budget is %d", ErrInsufficientMemory, tierStr, requiredMem, budget)
	}
	tierSize := t.Size()
	if tierSize == 0 {
		return Stats{}, fmt.Errorf("%w: %q", ErrDegenerateTier, tierStr)
	}

	if !o.Force {
		if status, err := db.CheckTier(tierStr); err == nil && status == StatusOK {
			stats, err := db.ReadStats(tierStr)
			if err == nil {
				logw.Infof(ctx, "solver: %v already committed, skipping (force not set)", tierStr)
				stats.TierSize = tierSize
				return stats, nil
			}
		}
	}

	logw.Infof(ctx, "solver: solving %v (size=%d, required_mem=%d)", tierStr, tierSize, requiredMem)

	fr := frontier.New()

	// S1 — Load child frontiers.
	if err := loadChildFrontiers(ctx, db, t, tierStr, fr); err != nil {
		return Stats{}, err
	}

	// S2 — Allocate working arrays.
	values := make([]int32, tierSize)
	nUndChild := make([]int32, tierSize)

	// S3 — Scan current tier.
	var loseNative []uint64
	for hash := uint64(0); hash < tierSize; hash++ {
		nc, err := movegen.NumChildren(tierStr, hash)
		if err != nil {
			return Stats{}, fmt.Errorf("solver: scanning %q hash %d: %w", tierStr, hash, err)
		}
		switch {
		case nc == movegen.IllegalPos:
			// Leave as Unreached.
		case nc == 0:
			values[hash] = int32(EncodeLose(0))
			loseNative = append(loseNative, hash)
		default:
			nUndChild[hash] = int32(nc)
		}
	}
	fr.AddBatch(frontier.Lose, 0, tierStr, loseNative)

	// S4 — Propagate in order by remoteness.
	maxR := 0
	for _, r := range fr.Remotenesses(frontier.Win) {
		if r > maxR {
			maxR = r
		}
	}
	for _, r := range fr.Remotenesses(frontier.Lose) {
		if r > maxR {
			maxR = r
		}
	}

	for r := 0; r <= maxR; r++ {
		loseGroups := fr.ReleaseGrouped(frontier.Lose, r)
		winBatch, err := propagateLose(ctx, tierStr, r, loseGroups, values, concurrency)
		if err != nil {
			return Stats{}, err
		}
		if len(winBatch) > 0 {
			fr.AddBatch(frontier.Win, r+1, tierStr, winBatch)
			if r+1 > maxR {
				maxR = r + 1
			}
		}

		winGroups := fr.ReleaseGrouped(frontier.Win, r)
		loseBatch, err := propagateWin(ctx, tierStr, r, winGroups, values, nUndChild, concurrency)
		if err != nil {
			return Stats{}, err
		}
		if len(loseBatch) > 0 {
			fr.AddBatch(frontier.Lose, r+1, tierStr, loseBatch)
			if r+1 > maxR {
				maxR = r + 1
			}
		}
	}

	// S5 — Finalize.
	stats := Stats{TierSize: tierSize}
	for hash := uint64(0); hash < tierSize; hash++ {
		if values[hash] == 0 && nUndChild[hash] > 0 {
			values[hash] = int32(ValueDraw)
		}
		outcome, remoteness := Value(values[hash]).Decode()
		switch outcome {
		case Win:
			stats.Win++
			pos, err := position.Unhash(t, hash)
			if err != nil {
				return Stats{}, fmt.Errorf("solver: unhashing %q@%d for stats: %w", tierStr, hash, err)
			}
			if pos.ToMove == xq.Red && remoteness > stats.RedLongestWinRemoteness {
				stats.RedLongestWinRemoteness = remoteness
				stats.RedLongestWinHash = hash
			}
			if pos.ToMove == xq.Black && remoteness > stats.BlackLongestWinRemoteness {
				stats.BlackLongestWinRemoteness = remoteness
				stats.BlackLongestWinHash = hash
			}
		case Lose:
			stats.Lose++
		case Draw:
			stats.Draw++
		}
	}
	stats.Legal = stats.Win + stats.Lose + stats.Draw

	// S6 — Persist.
	out := make([]Value, tierSize)
	for i, v := range values {
		out[i] = Value(v)
	}
	if status, err := db.CheckTier(tierStr); err == nil && status == StatusOK {
		old, err := db.LoadValues(tierStr)
		if err != nil {
			return Stats{}, err
		}
		if !sameValues(old, out) {
			return Stats{}, fmt.Errorf("%w: %q", ErrDuplicateMismatch, tierStr)
		}
		logw.Infof(ctx, "solver: %v already committed with matching values, skipping write", tierStr)
		return stats, nil
	}
	if err := db.StoreValues(tierStr, out); err != nil {
		return Stats{}, err
	}
	if err := db.WriteStats(tierStr, stats); err != nil {
		return Stats{}, err
	}
	logw.Infof(ctx, "solver: solved %v: win=%d lose=%d draw=%d", tierStr, stats.Win, stats.Lose, stats.Draw)
	return stats, nil
}

func sameValues(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// loadChildFrontiers implements S1: for each distinct child tier of t,
// load its already-committed values and insert every decided cell into
// fr, rotating hashes from a canonical twin into the actual child tier
// when the child itself isn't canonical.
func loadChildFrontiers(ctx context.Context, db DB, t *tier.Tier, tierStr string, fr *frontier.Frontier) error {
	edges, err := t.Children()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, e := range edges {
		if seen[e.Tier] {
			continue
		}
		seen[e.Tier] = true

		cTier, err := tier.Parse(e.Tier)
		if err != nil {
			return err
		}
		ctStr, err := tier.Canonical(e.Tier)
		if err != nil {
			return err
		}
		ctTier, err := tier.Parse(ctStr)
		if err != nil {
			return err
		}

		values, err := db.LoadValues(ctStr)
		if err != nil {
			return fmt.Errorf("solver: loading child tier %q (canonical %q) of %q: %w", e.Tier, ctStr, tierStr, err)
		}

		winByR := map[int][]uint64{}
		loseByR := map[int][]uint64{}
		for h, v := range values {
			outcome, remoteness := v.Decode()
			if outcome == Unreached || outcome == Draw {
				continue
			}
			hc := uint64(h)
			if e.Tier != ctStr {
				hc, err = position.RotateHash(ctTier, uint64(h), cTier)
				if err != nil {
					logw.Warningf(ctx, "solver: rotating hash %d of %q into %q: %v", h, ctStr, e.Tier, err)
					continue
				}
			}
			switch outcome {
			case Win:
				winByR[remoteness] = append(winByR[remoteness], hc)
			case Lose:
				loseByR[remoteness] = append(loseByR[remoteness], hc)
			}
		}
		for r, hashes := range winByR {
			fr.AddBatch(frontier.Win, r, e.Tier, hashes)
		}
		for r, hashes := range loseByR {
			fr.AddBatch(frontier.Lose, r, e.Tier, hashes)
		}
	}
	return nil
}

// propagateLose processes the lose bucket at remoteness r: every
// predecessor of a lose-in-r position is a win-in-(r+1) for the side
// that moves into it, claimed via atomic compare-and-swap so exactly
// one goroutine writes each cell (spec.md §5 shared-resource policy).
func propagateLose(ctx context.Context, tierStr string, r int, groups map[string][]uint64, values []int32, concurrency int) ([]uint64, error) {
	var mu sync.Mutex
	var winBatch []uint64

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for sourceTier, hashes := range groups {
		sourceTier, hashes := sourceTier, hashes
		for _, h := range hashes {
			h := h
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil, err
			}
			g.Go(func() error {
				defer sem.Release(1)
				parents, err := movegen.Parents(sourceTier, h, tierStr, tier.Change{})
				if err != nil {
					return fmt.Errorf("solver: parents of %q@%d: %w", sourceTier, h, err)
				}
				var local []uint64
				for _, p := range parents {
					if atomic.CompareAndSwapInt32(&values[p], 0, int32(EncodeWin(r+1))) {
						local = append(local, p)
					}
				}
				if len(local) > 0 {
					mu.Lock()
					winBatch = append(winBatch, local...)
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return winBatch, nil
}

// propagateWin processes the win bucket at remoteness r: every
// predecessor of a win-in-r position has its undecided-child counter
// atomically decremented; the predecessor whose counter reaches zero
// (claimed by the decrementer that observes it) becomes lose-in-(r+1).
func propagateWin(ctx context.Context, tierStr string, r int, groups map[string][]uint64, values, nUndChild []int32, concurrency int) ([]uint64, error) {
	var mu sync.Mutex
	var loseBatch []uint64

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for sourceTier, hashes := range groups {
		sourceTier, hashes := sourceTier, hashes
		for _, h := range hashes {
			h := h
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil, err
			}
			g.Go(func() error {
				defer sem.Release(1)
				parents, err := movegen.Parents(sourceTier, h, tierStr, tier.Change{})
				if err != nil {
					return fmt.Errorf("solver: parents of %q@%d: %w", sourceTier, h, err)
				}
				var local []uint64
				for _, p := range parents {
					remaining := atomic.AddInt32(&nUndChild[p], -1)
					if remaining == 0 {
						if atomic.CompareAndSwapInt32(&values[p], 0, int32(EncodeLose(r+1))) {
							local = append(local, p)
						}
					}
				}
				if len(local) > 0 {
					mu.Lock()
					loseBatch = append(loseBatch, local...)
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loseBatch, nil
}
