// Package engine wires the tier tree scheduler to the retrograde
// solver and the on-disk database, exposing the in-process API the CLI
// driver calls (spec.md §6 "In-process API").
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/herohde/xiangqisolve/internal/scheduler"
	"github.com/herohde/xiangqisolve/internal/solver"
	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Options configures a Driver.
type Options struct {
	// MemoryBudget is forwarded to every solver.SolveTier call as its
	// per-tier memory gate (spec.md §4.F stage S0). If unset, no tier
	// is ever memory-gated.
	MemoryBudget lang.Optional[uint64]
	// Concurrency bounds each tier solve's S4 worker pool.
	Concurrency lang.Optional[int]
	// Force re-solves every tier even if already committed, instead of
	// skipping straight to its committed Stats.
	Force bool
}

func (o Options) String() string {
	budget, _ := o.MemoryBudget.V()
	concurrency, _ := o.Concurrency.V()
	return fmt.Sprintf("{budget=%vB, concurrency=%v, force=%v}", budget, concurrency, o.Force)
}

// Driver drives tier solves against a database, one tier at a time,
// resolving and scheduling transitive dependencies first.
type Driver struct {
	db   solver.DB
	opts Options

	mu     sync.Mutex
	solved map[string]solver.Stats
	failed map[string]error
}

// Option is a Driver creation option.
type Option func(*Driver)

// WithOptions sets the default solver options every tier solve uses.
func WithOptions(opts Options) Option {
	return func(d *Driver) {
		d.opts = opts
	}
}

// New returns a Driver persisting against db.
func New(ctx context.Context, db solver.DB, opts ...Option) *Driver {
	d := &Driver{
		db:     db,
		solved: map[string]solver.Stats{},
		failed: map[string]error{},
	}
	for _, fn := range opts {
		fn(d)
	}
	logw.Infof(ctx, "engine: initialized driver, options=%v", d.opts)
	return d
}

// SolveTier resolves tierStr's transitive canonical child dependencies,
// solves every one of them not already committed, and returns the
// requested tier's own Stats.
func (d *Driver) SolveTier(ctx context.Context, tierStr string) (solver.Stats, error) {
	canonical, err := tier.Canonical(tierStr)
	if err != nil {
		return solver.Stats{}, err
	}

	results, err := d.run(ctx, func() (*scheduler.Scheduler, error) {
		return scheduler.NewFromSeeds([]string{tierStr})
	})
	if err != nil {
		return solver.Stats{}, err
	}
	if stats, ok := results.Solved[canonical]; ok {
		return stats, nil
	}
	if failErr, failed := results.Failed[canonical]; failed {
		return solver.Stats{}, fmt.Errorf("engine: tier %q failed: %w", canonical, failErr)
	}
	return solver.Stats{}, fmt.Errorf("engine: tier %q was never scheduled", tierStr)
}

// SolveFile resolves and solves the transitive closure of every tier
// named in tierStrs (the CLI's `file` mode).
func (d *Driver) SolveFile(ctx context.Context, tierStrs []string) (*Results, error) {
	return d.run(ctx, func() (*scheduler.Scheduler, error) {
		return scheduler.NewFromSeeds(tierStrs)
	})
}

// SolveAll enumerates and solves every legal canonical tier with piece
// count at most maxPieces (the CLI's `all` mode).
func (d *Driver) SolveAll(ctx context.Context, maxPieces int) (*Results, error) {
	return d.run(ctx, func() (*scheduler.Scheduler, error) {
		tiers, err := scheduler.EnumerateCanonical(maxPieces)
		if err != nil {
			return nil, err
		}
		return scheduler.New(tiers)
	})
}

// CheckTier reports tierStr's on-disk integrity status without solving
// it (the CLI's `check` mode).
func (d *Driver) CheckTier(tierStr string) (solver.CheckStatus, error) {
	canonical, err := tier.Canonical(tierStr)
	if err != nil {
		return 0, err
	}
	return d.db.CheckTier(canonical)
}

// Results is the outcome of draining a scheduler to completion: every
// tier's Stats on success, or its error on failure (spec.md §7
// "Memory exhaustion ... tier marked failed; dependents pruned").
type Results struct {
	Solved map[string]solver.Stats
	Failed map[string]error
}

func (d *Driver) run(ctx context.Context, build func() (*scheduler.Scheduler, error)) (*Results, error) {
	s, err := build()
	if err != nil {
		return nil, err
	}

	out := &Results{Solved: map[string]solver.Stats{}, Failed: map[string]error{}}
	for {
		tierStr, ok := s.Next()
		if !ok {
			break
		}

		var opts []solver.Option
		if budget, ok := d.opts.MemoryBudget.V(); ok {
			opts = append(opts, solver.WithMemoryBudget(budget))
		}
		if n, ok := d.opts.Concurrency.V(); ok {
			opts = append(opts, solver.WithConcurrency(n))
		}
		if d.opts.Force {
			opts = append(opts, solver.WithForce())
		}

		stats, err := solver.SolveTier(ctx, d.db, tierStr, opts...)
		if err != nil {
			logw.Errorf(ctx, "engine: tier %v failed: %v", tierStr, err)
			out.Failed[tierStr] = err
			s.Fail(tierStr)
			continue
		}

		out.Solved[tierStr] = stats
		if _, err := s.MarkSolved(tierStr); err != nil {
			return nil, fmt.Errorf("engine: marking %q solved: %w", tierStr, err)
		}
	}

	d.mu.Lock()
	for k, v := range out.Solved {
		d.solved[k] = v
	}
	for k, v := range out.Failed {
		d.failed[k] = v
	}
	d.mu.Unlock()

	return out, nil
}
