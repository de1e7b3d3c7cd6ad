// Package dbm implements a Difference Bound Matrix engine over a fixed,
// ordered clock list. Index 0 is always the reference clock ("zero"); every
// other index corresponds one-to-one with a named clock.
//
// No parser or printer exists for DBMs (out of scope); callers build them
// via NewUnconstrained and the mutating operations below. Every exported
// operation leaves the matrix canonical (closed under shortest-path), which
// is the invariant the rest of the core relies on without re-checking it.
package dbm

import (
	"fmt"
	"math"

	"github.com/tamatch/tamatch/internal/xerrors"
)

// Rel is the relation a bound carries: strict (<) or non-strict (<=).
type Rel int

const (
	RelLt Rel = iota
	RelLe
)

// Bound is one entry of a DBM: the constraint ci - cj <bound.Rel> bound.Val.
type Bound struct {
	Val int64 // math.MaxInt64 represents +infinity
	Rel Rel
}

const posInf = math.MaxInt64

func infBound() Bound  { return Bound{Val: posInf, Rel: RelLt} }
func zeroLe() Bound    { return Bound{Val: 0, Rel: RelLe} }

// add combines two bounds along a path: sums values (infinity absorbs), and
// the combined relation is strict if either leg is strict.
func (b Bound) add(o Bound) Bound {
	if b.Val == posInf || o.Val == posInf {
		return infBound()
	}
	rel := RelLe
	if b.Rel == RelLt || o.Rel == RelLt {
		rel = RelLt
	}
	return Bound{Val: b.Val + o.Val, Rel: rel}
}

// tighter reports whether b is a stricter (smaller) bound than o.
func (b Bound) tighter(o Bound) bool {
	if b.Val != o.Val {
		return b.Val < o.Val
	}
	return b.Rel == RelLt && o.Rel == RelLe
}

func minBound(a, b Bound) Bound {
	if a.tighter(b) {
		return a
	}
	return b
}

// DBM is a square matrix of Bound indexed 0..n, where n = len(Clocks).
type DBM struct {
	Clocks []string // clock names, not including the reference clock at index 0
	m      [][]Bound
}

// NewUnconstrained returns a canonical DBM over clocks with every clock
// equal to zero (the standard initial DBM for a newly-entered location).
func NewUnconstrained(clocks []string) *DBM {
	n := len(clocks) + 1
	m := make([][]Bound, n)
	for i := range m {
		m[i] = make([]Bound, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = zeroLe()
			} else {
				m[i][j] = infBound()
			}
		}
		m[i][0] = zeroLe()
		m[0][i] = zeroLe()
	}
	d := &DBM{Clocks: append([]string{}, clocks...), m: m}
	d.close()
	return d
}

// Clone returns a deep copy.
func (d *DBM) Clone() *DBM {
	m := make([][]Bound, len(d.m))
	for i := range d.m {
		m[i] = append([]Bound{}, d.m[i]...)
	}
	return &DBM{Clocks: append([]string{}, d.Clocks...), m: m}
}

func (d *DBM) idx(clock string) (int, error) {
	for i, c := range d.Clocks {
		if c == clock {
			return i + 1, nil
		}
	}
	return -1, &xerrors.DBMError{Kind: xerrors.DBMUnknownClock, Details: clock}
}

func (d *DBM) n() int { return len(d.m) }

// close computes the shortest-path closure in place: for every k, relax
// every (i,j) via (i,k)+(k,j). O(n^3), standard Floyd-Warshall shape.
func (d *DBM) close() {
	n := d.n()
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				via := d.m[i][k].add(d.m[k][j])
				if via.tighter(d.m[i][j]) {
					d.m[i][j] = via
				}
			}
		}
	}
}

// IsEmpty reports whether the DBM represents the empty zone: a negative
// cycle exists iff some M[i][i] is stricter than (0, <=).
func (d *DBM) IsEmpty() bool {
	for i := 0; i < d.n(); i++ {
		if d.m[i][i].tighter(zeroLe()) {
			return true
		}
	}
	return false
}

// Intersect returns the per-entry tighter bound of d and other, closed. Both
// must share the same clock list (same length, same order); callers are
// responsible for aligning clock sets before calling.
func (d *DBM) Intersect(other *DBM) (*DBM, error) {
	if len(d.Clocks) != len(other.Clocks) {
		return nil, &xerrors.DBMError{Kind: xerrors.DBMInclusionViolated, Details: "intersect requires matching clock sets"}
	}
	out := d.Clone()
	for i := 0; i < out.n(); i++ {
		for j := 0; j < out.n(); j++ {
			out.m[i][j] = minBound(out.m[i][j], other.m[i][j])
		}
	}
	out.close()
	if out.IsEmpty() {
		return out, &xerrors.DBMError{Kind: xerrors.DBMEmptyAfterClose, Details: "intersect produced an empty zone"}
	}
	return out, nil
}

// Union returns the smallest canonical DBM that includes both d and other
// (the convex-hull-free join used to merge clock regions between states
// that share locations and variable valuations). This is an
// over-approximation (not the exact set union), used only when both operands are already known to
// correspond to a single merged observation step.
func (d *DBM) Union(other *DBM) (*DBM, error) {
	if len(d.Clocks) != len(other.Clocks) {
		return nil, &xerrors.DBMError{Kind: xerrors.DBMInclusionViolated, Details: "union requires matching clock sets"}
	}
	out := d.Clone()
	for i := 0; i < out.n(); i++ {
		for j := 0; j < out.n(); j++ {
			a, b := out.m[i][j], other.m[i][j]
			if a.tighter(b) {
				out.m[i][j] = b
			}
		}
	}
	out.close()
	return out, nil
}

// DelayFuture lets time pass unboundedly: every clock's upper bound against
// the reference becomes +infinity, leaving M[0][j] untouched. Already
// canonical afterward if the input was canonical, so no re-close is needed.
func (d *DBM) DelayFuture() *DBM {
	out := d.Clone()
	for i := 1; i < out.n(); i++ {
		out.m[i][0] = infBound()
	}
	return out
}

// Reset sets clock to zero: M[idx][j] = M[0][j] and M[i][idx] = M[i][0] for
// all i, j, then closes.
func (d *DBM) Reset(clock string) (*DBM, error) {
	idx, err := d.idx(clock)
	if err != nil {
		return nil, err
	}
	out := d.Clone()
	for j := 0; j < out.n(); j++ {
		out.m[idx][j] = out.m[0][j]
	}
	for i := 0; i < out.n(); i++ {
		out.m[i][idx] = out.m[i][0]
	}
	out.close()
	return out, nil
}

// Conjugate tightens the constraint c1 - c2 <rel> val and closes. A fresh
// reference clock name of "" addresses index 0.
func (d *DBM) Conjugate(c1, c2 string, rel Rel, val int64) (*DBM, error) {
	i, err := d.resolveIndex(c1)
	if err != nil {
		return nil, err
	}
	j, err := d.resolveIndex(c2)
	if err != nil {
		return nil, err
	}
	out := d.Clone()
	cand := Bound{Val: val, Rel: rel}
	out.m[i][j] = minBound(out.m[i][j], cand)
	out.close()
	if out.IsEmpty() {
		return out, &xerrors.DBMError{Kind: xerrors.DBMEmptyAfterClose, Details: fmt.Sprintf("conjugate(%s-%s) emptied the zone", c1, c2)}
	}
	return out, nil
}

func (d *DBM) resolveIndex(clock string) (int, error) {
	if clock == "" {
		return 0, nil
	}
	return d.idx(clock)
}

// Includes reports whether other is a subset of d: per-entry, other's bound
// must dominate (be at least as tight as) d's.
func (d *DBM) Includes(other *DBM) bool {
	if len(d.Clocks) != len(other.Clocks) {
		return false
	}
	for i := 0; i < d.n(); i++ {
		for j := 0; j < d.n(); j++ {
			if !other.m[i][j].tighter(d.m[i][j]) && other.m[i][j] != d.m[i][j] {
				return false
			}
		}
	}
	return true
}

// Interval returns (lowerVal, lowerIncl, upperVal, upperIncl) for clock,
// derived from M[0][idx] (negated lower bound) and M[idx][0] (upper bound).
func (d *DBM) Interval(clock string) (int64, bool, int64, bool, error) {
	idx, err := d.idx(clock)
	if err != nil {
		return 0, false, 0, false, err
	}
	lower := d.m[0][idx]
	upper := d.m[idx][0]
	lowerVal := int64(0)
	if lower.Val != posInf {
		lowerVal = -lower.Val
	}
	upperVal := upper.Val
	return lowerVal, lower.Rel == RelLe, upperVal, upper.Rel == RelLe, nil
}
