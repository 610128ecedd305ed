// Package scheduler implements the tier tree scheduler (spec.md §4.H):
// it builds the dependency map between canonical tiers (how many
// distinct canonical child tiers each one has left to solve), exposes
// a ready list of tiers with no unsolved dependencies, and advances the
// tree as each tier finishes, decrementing parents and moving newly-
// unblocked tiers onto the ready list.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/herohde/xiangqisolve/internal/tier"
)

type tierEntry struct {
	unsolvedChildren int
	parents          []string // canonical parents depending on this tier
}

// Scheduler holds the dependency map and ready list for one solve run.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*tierEntry
	ready   []string
}

// New builds a Scheduler over exactly the canonical tiers in tiers
// (already deduplicated canonical forms), wiring each to its distinct
// canonical children found via tier.Children, and seeding the ready
// list with every tier that has none.
func New(tiers []string) (*Scheduler, error) {
	set := map[string]bool{}
	for _, t := range tiers {
		set[t] = true
	}

	s := &Scheduler{entries: map[string]*tierEntry{}}
	for t := range set {
		s.entries[t] = &tierEntry{}
	}

	for t := range set {
		children, err := canonicalChildren(t)
		if err != nil {
			return nil, fmt.Errorf("scheduler: children of %q: %w", t, err)
		}
		inSet := map[string]bool{}
		for _, c := range children {
			if c == t || !set[c] || inSet[c] {
				continue
			}
			inSet[c] = true
			s.entries[c].parents = append(s.entries[c].parents, t)
		}
		s.entries[t].unsolvedChildren = len(inSet)
	}

	for t, e := range s.entries {
		if e.unsolvedChildren == 0 {
			s.ready = append(s.ready, t)
		}
	}
	return s, nil
}

// NewFromSeeds builds a Scheduler over the transitive closure of seeds
// (each tier plus all of its canonical children, recursively) — the
// external-tier-list path (spec.md §4.H "alternative seed path").
func NewFromSeeds(seeds []string) (*Scheduler, error) {
	closure := map[string]bool{}
	var walk func(s string) error
	walk = func(t string) error {
		ct, err := tier.Canonical(t)
		if err != nil {
			return fmt.Errorf("scheduler: canonicalizing seed %q: %w", t, err)
		}
		if closure[ct] {
			return nil
		}
		closure[ct] = true
		children, err := canonicalChildren(ct)
		if err != nil {
			return fmt.Errorf("scheduler: children of %q: %w", ct, err)
		}
		for _, c := range children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, seed := range seeds {
		if err := walk(seed); err != nil {
			return nil, err
		}
	}

	var all []string
	for t := range closure {
		all = append(all, t)
	}
	return New(all)
}

// canonicalChildren returns the distinct canonical tier strings among
// tierStr's children.
func canonicalChildren(tierStr string) ([]string, error) {
	edges, err := tier.Children(tierStr)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, e := range edges {
		c, err := tier.Canonical(e.Tier)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// Next pops and returns the head of the ready list, or ok=false if the
// ready list is currently empty (the caller should stop, not block:
// under the sequential-outer-driver model there is nothing left once
// the ready list and every in-flight solve have drained).
func (s *Scheduler) Next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ready) == 0 {
		return "", false
	}
	t := s.ready[0]
	s.ready = s.ready[1:]
	return t, true
}

// MarkSolved records that tierStr finished solving successfully,
// decrementing every canonical parent's unsolved-children count and
// returning the set of parents newly moved to the ready list. A
// parent reachable via two distinct (non-canonical) child edges that
// both canonicalize to tierStr is only decremented once, by
// construction (New records each parent/child edge once per canonical
// pair). Calling MarkSolved on a failed (OOM) tier must be skipped by
// the caller so its dependents are pruned rather than unblocked.
func (s *Scheduler) MarkSolved(tierStr string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[tierStr]
	if !ok {
		return nil, fmt.Errorf("scheduler: %q is not in the dependency map", tierStr)
	}

	var newlyReady []string
	for _, p := range e.parents {
		pe, ok := s.entries[p]
		if !ok {
			continue
		}
		pe.unsolvedChildren--
		if pe.unsolvedChildren == 0 {
			s.ready = append(s.ready, p)
			newlyReady = append(newlyReady, p)
		}
	}
	delete(s.entries, tierStr)
	return newlyReady, nil
}

// Remaining reports how many tiers are still in the dependency map
// (solved or pruned tiers are removed by MarkSolved/Fail).
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Fail records that tierStr could not be solved (e.g. OOM): it is
// simply removed from the map without decrementing any parent, which
// naturally prunes every transitive dependent (they never reach zero
// and are never enqueued).
func (s *Scheduler) Fail(tierStr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tierStr)
}
