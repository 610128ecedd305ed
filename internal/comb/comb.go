// Package comb precomputes the binomial triangle used by tier sizing,
// position hashing and unhashing throughout the solver.
package comb

import "sync"

// MaxN and MaxK bound the binomial triangle. The board has 90 squares and
// no piece kind appears more than 5 times, but free-piece placement steps
// can draw from up to 90 remaining squares, so MaxN must cover the full
// board.
const (
	MaxN = 90
	MaxK = 12
)

var (
	once     sync.Once
	triangle [MaxN + 1][MaxK + 1]uint64
)

// makeTriangle fills the triangle bottom-up via Pascal's rule.
func makeTriangle() {
	triangle[0][0] = 1
	for n := 1; n <= MaxN; n++ {
		triangle[n][0] = 1
		limit := n
		if limit > MaxK {
			limit = MaxK
		}
		for k := 1; k <= limit; k++ {
			triangle[n][k] = triangle[n-1][k-1] + triangle[n-1][k]
		}
	}
}

// Init builds the table if it has not been built yet. Safe to call from
// multiple goroutines; idempotent.
func Init() {
	once.Do(makeTriangle)
}

// C returns C(n, k), the number of ways to choose k items from n, or 0 if
// out of the precomputed range or k > n.
func C(n, k int) uint64 {
	Init()
	if n < 0 || k < 0 || n > MaxN || k > MaxK || k > n {
		if k == 0 {
			return 1
		}
		return 0
	}
	return triangle[n][k]
}
