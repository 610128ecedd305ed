// Package tier implements the tier model: the symbolic grammar naming an
// equivalence class of Xiangqi endgame positions by piece inventory, its
// canonicalization under the color-swap/rotation symmetry, and the
// child/parent tier-change enumeration that drives the retrograde engine
// and the tier tree scheduler.
package tier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/herohde/xiangqisolve/internal/comb"
	"github.com/herohde/xiangqisolve/internal/xq"
)

// Count-array indices, in the fixed grammar order A,a,B,b,P,p,N,n,C,c,R,r.
const (
	RedAIdx = iota
	BlackAIdx
	RedBIdx
	BlackBIdx
	RedPIdx
	BlackPIdx
	RedNIdx
	BlackNIdx
	RedCIdx
	BlackCIdx
	RedRIdx
	BlackRIdx

	NumCounts
)

// MaxLen is the longest a tier string may be: 12 count digits, two
// underscores, and up to 5 pawn-row digits per side.
const MaxLen = NumCounts + 1 + 5 + 1 + 5

var kindOrder = [6]xq.Kind{xq.Advisor, xq.Bishop, xq.Pawn, xq.Knight, xq.Cannon, xq.Rook}

func kindAt(idx int) (xq.Kind, xq.Color) {
	c := xq.Red
	if idx%2 == 1 {
		c = xq.Black
	}
	return kindOrder[idx/2], c
}

func idxOf(k xq.Kind, c xq.Color) int {
	for i, kk := range kindOrder {
		if kk == k {
			base := i * 2
			if c == xq.Black {
				return base + 1
			}
			return base
		}
	}
	panic("tier: kind has no count index")
}

var (
	// ErrMalformed reports a tier string that does not fit the grammar.
	ErrMalformed = errors.New("malformed tier string")
	// ErrIllegal reports a tier string that parses but violates a
	// legality invariant (kind cap, row order, 5-vs-5 exclusion).
	ErrIllegal = errors.New("illegal tier")
)

// Tier is the parsed form of a tier string: the 12 non-king piece counts
// plus the red and black pawn-row digit lists, in non-increasing order.
type Tier struct {
	Counts    [NumCounts]int
	RedRows   []int
	BlackRows []int
}

// Parse decodes a tier string into its structured form. It does not
// check legality beyond what the grammar itself requires (digit range,
// underscore count); call IsLegal for the full invariant check.
func Parse(s string) (*Tier, error) {
	if len(s) > MaxLen {
		return nil, fmt.Errorf("%w: %q longer than %d chars", ErrMalformed, s, MaxLen)
	}
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q must have exactly two '_' separators", ErrMalformed, s)
	}
	digits := parts[0]
	if len(digits) != NumCounts {
		return nil, fmt.Errorf("%w: %q count prefix must be %d digits", ErrMalformed, s, NumCounts)
	}

	var t Tier
	for i := 0; i < NumCounts; i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return nil, fmt.Errorf("%w: %q has non-digit count at index %d", ErrMalformed, s, i)
		}
		t.Counts[i] = int(d - '0')
	}

	redRows, err := parseRows(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: red pawn rows of %q: %v", ErrMalformed, s, err)
	}
	blackRows, err := parseRows(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: black pawn rows of %q: %v", ErrMalformed, s, err)
	}
	t.RedRows = redRows
	t.BlackRows = blackRows
	return &t, nil
}

func parseRows(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	rows := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		d := s[i]
		if d < '0' || d > '9' {
			return nil, fmt.Errorf("non-digit row %q", s)
		}
		rows[i] = int(d - '0')
	}
	return rows, nil
}

// String renders the canonical grammar form: 12 digits, '_', red rows,
// '_', black rows.
func (t *Tier) String() string {
	var b strings.Builder
	for i := 0; i < NumCounts; i++ {
		fmt.Fprintf(&b, "%d", t.Counts[i])
	}
	b.WriteByte('_')
	writeRows(&b, t.RedRows)
	b.WriteByte('_')
	writeRows(&b, t.BlackRows)
	return b.String()
}

func writeRows(b *strings.Builder, rows []int) {
	for _, r := range rows {
		fmt.Fprintf(b, "%d", r)
	}
}

func (t *Tier) clone() *Tier {
	c := &Tier{Counts: t.Counts}
	c.RedRows = append([]int(nil), t.RedRows...)
	c.BlackRows = append([]int(nil), t.BlackRows...)
	return c
}

func (t *Tier) rowsFor(c xq.Color) []int {
	if c == xq.Red {
		return t.RedRows
	}
	return t.BlackRows
}

func (t *Tier) setRowsFor(c xq.Color, rows []int) {
	sort.Sort(sort.Reverse(sort.IntSlice(rows)))
	if c == xq.Red {
		t.RedRows = rows
	} else {
		t.BlackRows = rows
	}
}

func distinctDesc(rows []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range rows {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// IsLegal checks the full tier-legality invariant: grammar (already
// implied by a successful Parse), kind caps, pawn-row bounds and order,
// row-count agreement with the pawn counters, and the 5-vs-5 symmetric
// exclusion.
func (t *Tier) IsLegal() error {
	for i := 0; i < NumCounts; i++ {
		kind, _ := kindAt(i)
		if t.Counts[i] < 0 || t.Counts[i] > kind.MaxCount() {
			return fmt.Errorf("%w: count index %d = %d exceeds cap %d", ErrIllegal, i, t.Counts[i], kind.MaxCount())
		}
	}
	if err := checkRows(t.RedRows, t.Counts[RedPIdx]); err != nil {
		return fmt.Errorf("%w: red pawn rows: %v", ErrIllegal, err)
	}
	if err := checkRows(t.BlackRows, t.Counts[BlackPIdx]); err != nil {
		return fmt.Errorf("%w: black pawn rows: %v", ErrIllegal, err)
	}
	if t.Counts[RedPIdx] == 5 && t.Counts[BlackPIdx] == 5 && sameRows(t.RedRows, t.BlackRows) {
		return fmt.Errorf("%w: symmetric 5-vs-5 pawn deadlock", ErrIllegal)
	}
	return nil
}

func checkRows(rows []int, count int) error {
	if len(rows) != count {
		return fmt.Errorf("have %d rows, counter says %d", len(rows), count)
	}
	for i, r := range rows {
		if r < 0 || r > 6 {
			return fmt.Errorf("row digit %d out of [0,6]", r)
		}
		if i > 0 && rows[i-1] < rows[i] {
			return fmt.Errorf("rows not non-increasing")
		}
	}
	return nil
}

func sameRows(a, b []int) bool {
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

// IsLegal is the free-function form taking a raw tier string.
func IsLegal(s string) error {
	t, err := Parse(s)
	if err != nil {
		return err
	}
	return t.IsLegal()
}

// Mirror returns the color-swapped twin: paired counts are swapped and
// the red/black pawn-row suffixes are exchanged verbatim (see
// SPEC_FULL.md §3 for why no per-digit transform is needed here).
func (t *Tier) Mirror() *Tier {
	m := &Tier{}
	for i := 0; i < NumCounts; i += 2 {
		m.Counts[i] = t.Counts[i+1]
		m.Counts[i+1] = t.Counts[i]
	}
	m.RedRows = append([]int(nil), t.BlackRows...)
	m.BlackRows = append([]int(nil), t.RedRows...)
	return m
}

// Mirror is the free-function form.
func Mirror(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return t.Mirror().String(), nil
}

// Canonical returns the lexicographically smaller of s and its mirror.
func Canonical(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	ms := t.Mirror().String()
	if s <= ms {
		return s, nil
	}
	return ms, nil
}

// IsCanonical reports whether s is already its own canonical form.
func IsCanonical(s string) (bool, error) {
	c, err := Canonical(s)
	if err != nil {
		return false, err
	}
	return c == s, nil
}

// kingAdvisorDomain is the number of king+advisor arrangements in one
// palace for a advisors present (0, 1 or 2). The magic constants are the
// closed forms for the 9-point palace with the king confined to it and
// advisors confined to their 5 diagonal points, accounting for the
// king-on-an-advisor-point overlap case.
func kingAdvisorDomain(a int) uint64 {
	switch a {
	case 0:
		return 9
	case 1:
		return 40
	case 2:
		return 70
	default:
		return 0
	}
}

func countByDigit(rows []int) [7]int {
	var c [7]int
	for _, r := range rows {
		if r >= 0 && r < 7 {
			c[r]++
		}
	}
	return c
}

func pawnRowFactor(rows []int) uint64 {
	counts := countByDigit(rows)
	var total uint64 = 1
	for _, k := range counts {
		total *= comb.C(9, k)
	}
	return total
}

// Size computes tier_size(t): the number of distinct (board,
// side-to-move) pairs in the tier, as the product of the king+advisor,
// bishop, pawn-row and free-piece placement factors, times 2 for the
// side-to-move bit. Returns 0 on arithmetic overflow (checked
// multiplication), matching the original's overflow-rejects-tier policy.
func (t *Tier) Size() uint64 {
	factors := []uint64{
		kingAdvisorDomain(t.Counts[RedAIdx]),
		kingAdvisorDomain(t.Counts[BlackAIdx]),
		comb.C(7, t.Counts[RedBIdx]),
		comb.C(7, t.Counts[BlackBIdx]),
		pawnRowFactor(t.RedRows),
		pawnRowFactor(t.BlackRows),
	}

	placed := 2 + t.Counts[RedAIdx] + t.Counts[BlackAIdx] + t.Counts[RedBIdx] + t.Counts[BlackBIdx] +
		t.Counts[RedPIdx] + t.Counts[BlackPIdx]
	remaining := xq.NumSquares - placed
	for _, idx := range []int{RedNIdx, BlackNIdx, RedCIdx, BlackCIdx, RedRIdx, BlackRIdx} {
		k := t.Counts[idx]
		factors = append(factors, comb.C(remaining, k))
		remaining -= k
	}

	total := uint64(2)
	for _, f := range factors {
		if f == 0 {
			return 0
		}
		next := total * f
		if total != 0 && next/total != f {
			return 0 // overflow
		}
		total = next
	}
	return total
}

// Size is the free-function form.
func Size(s string) (uint64, error) {
	t, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return t.Size(), nil
}

// PawnsPerRow decodes the per-absolute-row pawn counts used by hashing:
// index c*10+row, c=0 red, c=1 black.
func (t *Tier) PawnsPerRow() [2 * xq.NumRows]uint8 {
	var out [2 * xq.NumRows]uint8
	for _, d := range t.RedRows {
		out[0*xq.NumRows+(9-d)]++
	}
	for _, d := range t.BlackRows {
		out[1*xq.NumRows+d]++
	}
	return out
}

// RequiredMem estimates the working-set bytes needed to solve t:
// 19 bytes per cell of t (values + undecided-children counters plus
// bookkeeping) and 16 bytes per cell of every distinct child tier
// (streamed one at a time but budgeted for the worst case of all being
// resident).
func (t *Tier) RequiredMem() (uint64, error) {
	size := t.Size()
	if size == 0 {
		return 0, fmt.Errorf("%w: tier size overflowed or is degenerate", ErrIllegal)
	}

	edges, err := t.Children()
	if err != nil {
		return 0, err
	}
	seen := map[string]bool{}
	var childTotal uint64
	for _, e := range edges {
		c, err := Canonical(e.Tier)
		if err != nil {
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		cs, err := Size(c)
		if err != nil {
			continue
		}
		childTotal += cs
	}
	return 19*size + 16*childTotal, nil
}

// RequiredMem is the free-function form.
func RequiredMem(s string) (uint64, error) {
	t, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return t.RequiredMem()
}
