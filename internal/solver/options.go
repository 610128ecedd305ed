package solver

import (
	"fmt"

	"github.com/seekerror/stdlib/pkg/lang"
)

// Options configures a SolveTier invocation.
type Options struct {
	// MemoryBudget is the byte ceiling enforced by stage S0. If unset, a
	// tier's required_mem is never checked.
	MemoryBudget lang.Optional[uint64]
	// Concurrency bounds the number of goroutines stage S4 may run
	// concurrently while propagating a remoteness bucket. If unset, or
	// if set to a value below 1, propagation runs sequentially.
	Concurrency lang.Optional[int]
	// Force re-solves a tier even if it is already committed (spec.md
	// §6 `solve_tier(tier_name, mem_budget, force)`). Without it, S0
	// returns the committed Stats without touching the frontier.
	Force bool
}

func (o Options) String() string {
	budget, _ := o.MemoryBudget.V()
	concurrency, _ := o.Concurrency.V()
	return fmt.Sprintf("{budget=%vB, concurrency=%v, force=%v}", budget, concurrency, o.Force)
}

// Option is a SolveTier creation option.
type Option func(*Options)

// WithMemoryBudget sets the byte ceiling for stage S0's gate check.
func WithMemoryBudget(bytes uint64) Option {
	return func(o *Options) {
		o.MemoryBudget = lang.Some(bytes)
	}
}

// WithConcurrency sets the worker pool size used while propagating
// each remoteness bucket in stage S4.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = lang.Some(n)
	}
}

// WithForce re-solves a tier even if it is already committed, rather
// than returning the committed Stats from stage S0.
func WithForce() Option {
	return func(o *Options) {
		o.Force = true
	}
}
