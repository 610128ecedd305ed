package scheduler

import (
	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/herohde/xiangqisolve/internal/xq"
)

// kindOrder mirrors the fixed grammar order used by tier.Tier.Counts
// (spec.md §3: A,a,B,b,P,p,N,n,C,c,R,r), needed here only to look up
// each count slot's per-color cap.
var kindOrder = [6]xq.Kind{xq.Advisor, xq.Bishop, xq.Pawn, xq.Knight, xq.Cannon, xq.Rook}

// maxRowDigit is the highest pawn-row digit the tier grammar allows.
const maxRowDigit = 6

// EnumerateCanonical returns every legal canonical tier string with
// total piece count (both kings plus all twelve counted kinds) at most
// maxPieces (spec.md §4.H "Enumerate all legal canonical tiers with
// piece count ≤ max_pieces"). It backtracks over the twelve count
// slots and, for each, every non-increasing pawn-row-digit assignment,
// so cost grows combinatorially with maxPieces — intended for the
// small endgame tiers this solver targets, not whole-game generation.
func EnumerateCanonical(maxPieces int) ([]string, error) {
	budget := maxPieces - 2 // two kings are always present and uncounted here
	if budget < 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	var out []string
	var counts [tier.NumCounts]int

	var recurseCounts func(idx, remaining int) error
	recurseCounts = func(idx, remaining int) error {
		if idx == tier.NumCounts {
			return recurseRows(counts, func(redRows, blackRows []int) error {
				t := &tier.Tier{Counts: counts, RedRows: redRows, BlackRows: blackRows}
				if err := t.IsLegal(); err != nil {
					return nil
				}
				s := t.String()
				canonical, err := tier.Canonical(s)
				if err != nil {
					return err
				}
				if canonical == s && !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
				return nil
			})
		}

		limit := kindOrder[idx/2].MaxCount()
		if limit > remaining {
			limit = remaining
		}
		for v := 0; v <= limit; v++ {
			counts[idx] = v
			if err := recurseCounts(idx+1, remaining-v); err != nil {
				return err
			}
		}
		counts[idx] = 0
		return nil
	}

	if err := recurseCounts(0, budget); err != nil {
		return nil, err
	}
	return out, nil
}

// recurseRows enumerates every non-increasing pawn-row-digit assignment
// for the red and black pawn counts implied by counts, calling fn for
// each (red, black) row-list pair.
func recurseRows(counts [tier.NumCounts]int, fn func(redRows, blackRows []int) error) error {
	redCombos := rowCombos(counts[tier.RedPIdx])
	blackCombos := rowCombos(counts[tier.BlackPIdx])
	for _, r := range redCombos {
		for _, b := range blackCombos {
			if err := fn(r, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// rowCombos returns every non-increasing sequence of length n with
// digits in [0, maxRowDigit].
func rowCombos(n int) [][]int {
	if n == 0 {
		return [][]int{nil}
	}
	var out [][]int
	var build func(start int, cur []int)
	build = func(pos int, cur []int) {
		if pos == n {
			out = append(out, append([]int(nil), cur...))
			return
		}
		hi := maxRowDigit
		if pos > 0 {
			hi = cur[pos-1]
		}
		for d := hi; d >= 0; d-- {
			build(pos+1, append(cur, d))
		}
	}
	build(0, nil)
	return out
}
