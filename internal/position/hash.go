package position

import (
	"fmt"
	"sort"
	"sync"

	"github.com/herohde/xiangqisolve/internal/comb"
	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/herohde/xiangqisolve/internal/xq"
)

// rankSubset computes the combinatorial-number-system rank of a k-subset
// of {0,...,n-1}, given its elements sorted descending. This is the
// "combi-cruncher" named in spec.md §4.C: walking the slots
// right-to-left and summing completions for smaller-ordinal kinds.
func rankSubset(elemsDesc []int) uint64 {
	var rank uint64
	k := len(elemsDesc)
	for i, e := range elemsDesc {
		rank += comb.C(e, k-i)
	}
	return rank
}

// unrankSubset inverts rankSubset: returns the k-subset of {0,...,n-1}
// with the given rank, sorted descending. This is the "un-cruncher".
func unrankSubset(n, k int, rank uint64) []int {
	out := make([]int, k)
	v := n - 1
	for i := 0; i < k; i++ {
		kk := k - i
		for v >= 0 && comb.C(v, kk) > rank {
			v--
		}
		out[i] = v
		rank -= comb.C(v, kk)
		v--
	}
	return out
}

// kaConfig is one valid (king, advisors) arrangement within a palace.
type kaConfig struct {
	King     xq.Square
	Advisors []xq.Square // sorted ascending
}

var (
	kaOnce   sync.Once
	kaTables [xq.NumColors][3][]kaConfig // [color][numAdvisors]
)

func buildKATables() {
	for _, c := range []xq.Color{xq.Red, xq.Black} {
		palace := palacePoints(c)
		adv := advisorPoints(c)
		for n := 0; n <= 2; n++ {
			var configs []kaConfig
			for _, k := range palace {
				combos := chooseSquares(adv[:], n, k)
				for _, combo := range combos {
					configs = append(configs, kaConfig{King: k, Advisors: combo})
				}
			}
			sort.Slice(configs, func(i, j int) bool {
				if configs[i].King != configs[j].King {
					return configs[i].King < configs[j].King
				}
				for x := range configs[i].Advisors {
					if configs[i].Advisors[x] != configs[j].Advisors[x] {
						return configs[i].Advisors[x] < configs[j].Advisors[x]
					}
				}
				return false
			})
			kaTables[c][n] = configs
		}
	}
}

// chooseSquares returns every n-subset of pts that excludes excl, each
// sorted ascending.
func chooseSquares(pts []xq.Square, n int, excl xq.Square) [][]xq.Square {
	var avail []xq.Square
	for _, s := range pts {
		if s != excl {
			avail = append(avail, s)
		}
	}
	var out [][]xq.Square
	var rec func(start int, cur []xq.Square)
	rec = func(start int, cur []xq.Square) {
		if len(cur) == n {
			out = append(out, append([]xq.Square(nil), cur...))
			return
		}
		for i := start; i < len(avail); i++ {
			rec(i+1, append(cur, avail[i]))
		}
	}
	rec(0, nil)
	return out
}

func palacePoints(c xq.Color) [9]xq.Square {
	var rows [3]int
	if c == xq.Red {
		rows = [3]int{0, 1, 2}
	} else {
		rows = [3]int{7, 8, 9}
	}
	var out [9]xq.Square
	i := 0
	for _, r := range rows {
		for col := 3; col <= 5; col++ {
			out[i] = xq.NewSquare(r, col)
			i++
		}
	}
	return out
}

func advisorPoints(c xq.Color) [5]xq.Square {
	if c == xq.Red {
		return [5]xq.Square{
			xq.NewSquare(0, 3), xq.NewSquare(0, 5),
			xq.NewSquare(1, 4),
			xq.NewSquare(2, 3), xq.NewSquare(2, 5),
		}
	}
	return [5]xq.Square{
		xq.NewSquare(7, 3), xq.NewSquare(7, 5),
		xq.NewSquare(8, 4),
		xq.NewSquare(9, 3), xq.NewSquare(9, 5),
	}
}

func kaDomain(c xq.Color, n int) int {
	kaOnce.Do(buildKATables)
	return len(kaTables[c][n])
}

func kaRank(c xq.Color, king xq.Square, advisors []xq.Square) (uint64, error) {
	kaOnce.Do(buildKATables)
	want := sortSquares(advisors)
	for i, cfg := range kaTables[c][len(advisors)] {
		if cfg.King != king {
			continue
		}
		if sameSquares(cfg.Advisors, want) {
			return uint64(i), nil
		}
	}
	return 0, fmt.Errorf("position: no king/advisor configuration for %v king=%v advisors=%v", c, king, advisors)
}

func kaUnrank(c xq.Color, n int, rank uint64) (xq.Square, []xq.Square, error) {
	kaOnce.Do(buildKATables)
	tbl := kaTables[c][n]
	if rank >= uint64(len(tbl)) {
		return xq.InvalidSquare, nil, fmt.Errorf("position: king/advisor rank %d out of range", rank)
	}
	cfg := tbl[rank]
	return cfg.King, cfg.Advisors, nil
}

func sameSquares(a, b []xq.Square) bool {
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

// radix accumulates mixed-radix digits most-significant first.
type radix struct {
	total uint64
}

func (r *radix) push(idx uint64, domain int) {
	r.total = r.total*uint64(domain) + idx
}

// pop extracts the least-significant digit of a given domain, in
// reverse order of push: call pop in the reverse order the digits were
// pushed.
func (r *radix) pop(domain int) uint64 {
	idx := r.total % uint64(domain)
	r.total /= uint64(domain)
	return idx
}

// pawnRowColumns returns, for color c and row digit d (0..6), the
// occupied columns among the pawns at that row, sorted descending.
func pawnRowColumns(rows []xq.Square, c xq.Color, digit int) []int {
	row := digitToRow(c, digit)
	var cols []int
	for _, sq := range rows {
		if sq.Row() == row {
			cols = append(cols, sq.Col())
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(cols)))
	return cols
}

func digitToRow(c xq.Color, digit int) int {
	if c == xq.Red {
		return 9 - digit
	}
	return digit
}

// Hash computes the dense in-tier hash of pos, per the 15-sub-choice
// bijection of spec.md §4.C (renumbered and flattened per the
// simplification documented in DESIGN.md: one step per pawn-row digit
// rather than a further more/less-restricted column split).
func Hash(t *tier.Tier, pos *Position) (uint64, error) {
	if err := pos.Validate(); err != nil {
		return 0, err
	}

	var r radix

	ka1, err := kaRank(xq.Red, pos.RedKing, pos.RedAdvisors)
	if err != nil {
		return 0, err
	}
	ka2, err := kaRank(xq.Black, pos.BlackKing, pos.BlackAdvisors)
	if err != nil {
		return 0, err
	}
	r.push(ka1, kaDomain(xq.Red, len(pos.RedAdvisors)))
	r.push(ka2, kaDomain(xq.Black, len(pos.BlackAdvisors)))

	bishopPush := func(c xq.Color, squares []xq.Square) error {
		pts := xq.BishopPoints(c)
		var cols []int
		for _, sq := range squares {
			idx := indexOf(pts[:], sq)
			if idx < 0 {
				return fmt.Errorf("position: bishop at %v not a valid bishop point for %v", sq, c)
			}
			cols = append(cols, idx)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(cols)))
		r.push(rankSubset(cols), int(comb.C(7, len(squares))))
		return nil
	}
	if err := bishopPush(xq.Red, pos.RedBishops); err != nil {
		return 0, err
	}
	if err := bishopPush(xq.Black, pos.BlackBishops); err != nil {
		return 0, err
	}

	pawnPush := func(c xq.Color, squares []xq.Square) {
		for d := 0; d <= 6; d++ {
			cols := pawnRowColumns(squares, c, d)
			r.push(rankSubset(cols), int(comb.C(9, len(cols))))
		}
	}
	pawnPush(xq.Red, pos.RedPawns)
	pawnPush(xq.Black, pos.BlackPawns)

	occupied := map[xq.Square]bool{
		pos.RedKing: true, pos.BlackKing: true,
	}
	for _, g := range [][]xq.Square{pos.RedAdvisors, pos.BlackAdvisors, pos.RedBishops, pos.BlackBishops, pos.RedPawns, pos.BlackPawns} {
		for _, sq := range g {
			occupied[sq] = true
		}
	}
	var avail []xq.Square
	for i := 0; i < xq.NumSquares; i++ {
		sq := xq.Square(i)
		if !occupied[sq] {
			avail = append(avail, sq)
		}
	}

	freeGroups := []struct {
		color xq.Color
		kind  xq.Kind
		sqs   []xq.Square
	}{
		{xq.Red, xq.Knight, pos.RedKnights}, {xq.Black, xq.Knight, pos.BlackKnights},
		{xq.Red, xq.Cannon, pos.RedCannons}, {xq.Black, xq.Cannon, pos.BlackCannons},
		{xq.Red, xq.Rook, pos.RedRooks}, {xq.Black, xq.Rook, pos.BlackRooks},
	}
	for _, fg := range freeGroups {
		var idxs []int
		for _, sq := range fg.sqs {
			idx := indexOf(avail, sq)
			if idx < 0 {
				return 0, fmt.Errorf("position: %v %v at %v not among remaining empty squares", fg.color, fg.kind, sq)
			}
			idxs = append(idxs, idx)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
		r.push(rankSubset(idxs), int(comb.C(len(avail), len(fg.sqs))))
		avail = removeIndices(avail, idxs)
	}

	toMove := uint64(0)
	if pos.ToMove == xq.Black {
		toMove = 1
	}
	r.push(toMove, 2)

	return r.total, nil
}

func indexOf(sqs []xq.Square, sq xq.Square) int {
	for i, s := range sqs {
		if s == sq {
			return i
		}
	}
	return -1
}

// removeIndices removes the (descending-sorted) indices from sqs,
// preserving the order of the rest.
func removeIndices(sqs []xq.Square, idxsDesc []int) []xq.Square {
	out := append([]xq.Square(nil), sqs...)
	for _, idx := range idxsDesc {
		out = append(out[:idx], out[idx+1:]...)
	}
	return out
}

// Unhash inverts Hash: given the tier and a hash in [0, tier.Size()),
// reconstructs the Position. Returns a Position with Invalid set when
// the hash decodes to an impossible placement (spec.md §4.C Unhash
// contract) rather than an error, matching the no-op-on-invalid policy.
func Unhash(t *tier.Tier, hash uint64) (*Position, error) {
	size := t.Size()
	if size == 0 || hash >= size {
		return nil, fmt.Errorf("position: hash %d out of range for tier size %d", hash, size)
	}

	// Pop digits in reverse push order.
	r := radix{total: hash}
	toMove := r.pop(2)

	placed := 2 + t.Counts[tier.RedAIdx] + t.Counts[tier.BlackAIdx] + t.Counts[tier.RedBIdx] + t.Counts[tier.BlackBIdx] +
		t.Counts[tier.RedPIdx] + t.Counts[tier.BlackPIdx]
	remaining := xq.NumSquares - placed

	// Domains depend on the shrinking `remaining` count in forward
	// (push) order, so compute them forward first, then pop in reverse
	// (red knight, black knight, red cannon, black cannon, red rook,
	// black rook was the push order; pop order mirrors it).
	fwdRemaining := remaining
	var fwdDomains [6]int
	fwdDomains[0] = int(comb.C(fwdRemaining, t.Counts[tier.RedNIdx]))
	fwdRemaining -= t.Counts[tier.RedNIdx]
	fwdDomains[1] = int(comb.C(fwdRemaining, t.Counts[tier.BlackNIdx]))
	fwdRemaining -= t.Counts[tier.BlackNIdx]
	fwdDomains[2] = int(comb.C(fwdRemaining, t.Counts[tier.RedCIdx]))
	fwdRemaining -= t.Counts[tier.RedCIdx]
	fwdDomains[3] = int(comb.C(fwdRemaining, t.Counts[tier.BlackCIdx]))
	fwdRemaining -= t.Counts[tier.BlackCIdx]
	fwdDomains[4] = int(comb.C(fwdRemaining, t.Counts[tier.RedRIdx]))
	fwdRemaining -= t.Counts[tier.RedRIdx]
	fwdDomains[5] = int(comb.C(fwdRemaining, t.Counts[tier.BlackRIdx]))

	var domains [6]int
	for i := range domains {
		domains[i] = fwdDomains[5-i]
	}
	var popIdx [6]uint64
	for i, d := range domains {
		popIdx[i] = r.pop(d)
	}

	toMoveColor := xq.Red
	if toMove == 1 {
		toMoveColor = xq.Black
	}

	var blackPawnCols, redPawnCols [7][]int
	// Pop pawn-row subsets in reverse of push order: black digit 6..0,
	// then red digit 6..0.
	blackPawnRowCounts := countByDigitFromTier(t.BlackRows)
	redPawnRowCounts := countByDigitFromTier(t.RedRows)
	for d := 6; d >= 0; d-- {
		dom := int(comb.C(9, blackPawnRowCounts[d]))
		idx := r.pop(dom)
		blackPawnCols[d] = unrankSubset(9, blackPawnRowCounts[d], idx)
	}
	for d := 6; d >= 0; d-- {
		dom := int(comb.C(9, redPawnRowCounts[d]))
		idx := r.pop(dom)
		redPawnCols[d] = unrankSubset(9, redPawnRowCounts[d], idx)
	}

	bishopBlackDom := int(comb.C(7, t.Counts[tier.BlackBIdx]))
	bishopBlackIdx := r.pop(bishopBlackDom)
	bishopRedDom := int(comb.C(7, t.Counts[tier.RedBIdx]))
	bishopRedIdx := r.pop(bishopRedDom)

	kaBlackDom := kaDomain(xq.Black, t.Counts[tier.BlackAIdx])
	kaBlackIdx := r.pop(kaBlackDom)
	kaRedDom := kaDomain(xq.Red, t.Counts[tier.RedAIdx])
	kaRedIdx := r.pop(kaRedDom)

	pos := &Position{ToMove: toMoveColor}

	redKing, redAdv, err := kaUnrank(xq.Red, t.Counts[tier.RedAIdx], kaRedIdx)
	if err != nil {
		return &Position{Invalid: true}, nil
	}
	blackKing, blackAdv, err := kaUnrank(xq.Black, t.Counts[tier.BlackAIdx], kaBlackIdx)
	if err != nil {
		return &Position{Invalid: true}, nil
	}
	pos.RedKing, pos.RedAdvisors = redKing, redAdv
	pos.BlackKing, pos.BlackAdvisors = blackKing, blackAdv

	redBpts := xq.BishopPoints(xq.Red)
	redBidxs := unrankSubset(7, t.Counts[tier.RedBIdx], bishopRedIdx)
	for _, idx := range redBidxs {
		pos.RedBishops = append(pos.RedBishops, redBpts[idx])
	}
	blackBpts := xq.BishopPoints(xq.Black)
	blackBidxs := unrankSubset(7, t.Counts[tier.BlackBIdx], bishopBlackIdx)
	for _, idx := range blackBidxs {
		pos.BlackBishops = append(pos.BlackBishops, blackBpts[idx])
	}

	for d := 0; d <= 6; d++ {
		row := digitToRow(xq.Red, d)
		for _, col := range redPawnCols[d] {
			pos.RedPawns = append(pos.RedPawns, xq.NewSquare(row, col))
		}
	}
	for d := 0; d <= 6; d++ {
		row := digitToRow(xq.Black, d)
		for _, col := range blackPawnCols[d] {
			pos.BlackPawns = append(pos.BlackPawns, xq.NewSquare(row, col))
		}
	}

	occupied := map[xq.Square]bool{pos.RedKing: true, pos.BlackKing: true}
	for _, g := range [][]xq.Square{pos.RedAdvisors, pos.BlackAdvisors, pos.RedBishops, pos.BlackBishops, pos.RedPawns, pos.BlackPawns} {
		for _, sq := range g {
			if occupied[sq] {
				return &Position{Invalid: true}, nil
			}
			occupied[sq] = true
		}
	}
	var avail []xq.Square
	for i := 0; i < xq.NumSquares; i++ {
		sq := xq.Square(i)
		if !occupied[sq] {
			avail = append(avail, sq)
		}
	}

	// Unrank free pieces in forward (push) order: red N, black N, red
	// C, black C, red R, black R, consuming `avail` as we go.
	assignFree := func(count int, idx uint64) []xq.Square {
		sel := unrankSubset(len(avail), count, idx)
		var out []xq.Square
		for _, i := range sel {
			out = append(out, avail[i])
		}
		avail = removeIndices(avail, sel)
		return out
	}
	pos.RedKnights = assignFree(t.Counts[tier.RedNIdx], popIdx[5])
	pos.BlackKnights = assignFree(t.Counts[tier.BlackNIdx], popIdx[4])
	pos.RedCannons = assignFree(t.Counts[tier.RedCIdx], popIdx[3])
	pos.BlackCannons = assignFree(t.Counts[tier.BlackCIdx], popIdx[2])
	pos.RedRooks = assignFree(t.Counts[tier.RedRIdx], popIdx[1])
	pos.BlackRooks = assignFree(t.Counts[tier.BlackRIdx], popIdx[0])

	if err := pos.Validate(); err != nil {
		return &Position{Invalid: true}, nil
	}
	return pos, nil
}

func countByDigitFromTier(rows []int) [7]int {
	var out [7]int
	for _, d := range rows {
		if d >= 0 && d < 7 {
			out[d]++
		}
	}
	return out
}

// RotateHash implements the canonical-twin rotation: unhash h in the
// canonical tier ct, rotate every square 180 degrees and swap colors,
// then rehash in the (legal, non-canonical) tier nct. Spec.md §4.C /
// §9.
func RotateHash(ct *tier.Tier, h uint64, nct *tier.Tier) (uint64, error) {
	pos, err := Unhash(ct, h)
	if err != nil {
		return 0, err
	}
	if pos.Invalid {
		return 0, fmt.Errorf("position: cannot rotate an invalid hash")
	}
	rotated := rotateAndSwap(pos)
	return Hash(nct, rotated)
}

func rotateAndSwap(p *Position) *Position {
	rot := func(sq xq.Square) xq.Square { return sq.Rotate180() }
	rotAll := func(sqs []xq.Square) []xq.Square {
		out := make([]xq.Square, len(sqs))
		for i, sq := range sqs {
			out[i] = rot(sq)
		}
		return sortSquares(out)
	}
	return &Position{
		RedKing: rot(p.BlackKing), BlackKing: rot(p.RedKing),
		RedAdvisors: rotAll(p.BlackAdvisors), BlackAdvisors: rotAll(p.RedAdvisors),
		RedBishops: rotAll(p.BlackBishops), BlackBishops: rotAll(p.RedBishops),
		RedPawns: rotAll(p.BlackPawns), BlackPawns: rotAll(p.RedPawns),
		RedKnights: rotAll(p.BlackKnights), BlackKnights: rotAll(p.RedKnights),
		RedCannons: rotAll(p.BlackCannons), BlackCannons: rotAll(p.RedCannons),
		RedRooks: rotAll(p.BlackRooks), BlackRooks: rotAll(p.RedRooks),
		ToMove: p.ToMove.Opponent(),
	}
}
