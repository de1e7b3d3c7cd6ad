package dbm

import "testing"

func TestNewUnconstrained_AllClocksZero(t *testing.T) {
	d := NewUnconstrained([]string{"x", "y"})
	if d.IsEmpty() {
		t.Fatal("fresh DBM should not be empty")
	}
	lo, loIncl, hi, hiIncl, err := d.Interval("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lo != 0 || !loIncl || hi != 0 || !hiIncl {
		t.Errorf("interval = [%d(incl=%v), %d(incl=%v)], want [0,0] inclusive", lo, loIncl, hi, hiIncl)
	}
}

func TestDelayFuture_RemovesUpperBoundOnly(t *testing.T) {
	d := NewUnconstrained([]string{"x"})
	d = d.DelayFuture()
	_, loIncl, hi, _, err := d.Interval("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hi != posInf {
		t.Errorf("upper = %d, want +inf after delay", hi)
	}
	if !loIncl {
		t.Errorf("lower bound inclusivity should be unaffected by delay")
	}
}

func TestReset_BringsClockBackToZero(t *testing.T) {
	d := NewUnconstrained([]string{"x"})
	d = d.DelayFuture()
	reset, err := d.Reset("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lo, _, hi, _, err := reset.Interval("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lo != 0 || hi != 0 {
		t.Errorf("interval after reset = [%d,%d], want [0,0]", lo, hi)
	}
}

func TestConjugate_TightensAndDetectsEmptiness(t *testing.T) {
	d := NewUnconstrained([]string{"x"})
	d = d.DelayFuture()
	tightened, err := d.Conjugate("x", "", RelLe, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, hi, _, _ := tightened.Interval("x")
	if hi != 5 {
		t.Errorf("upper bound = %d, want 5", hi)
	}
	// x <= 5 and x <= -1 (i.e. x - 0 <= -1) together are unsatisfiable.
	_, err = tightened.Conjugate("x", "", RelLe, -1)
	if err == nil {
		t.Fatal("expected an empty-zone error from an unsatisfiable conjugate")
	}
}

func TestIntersect_RequiresMatchingClockSets(t *testing.T) {
	a := NewUnconstrained([]string{"x"})
	b := NewUnconstrained([]string{"x", "y"})
	if _, err := a.Intersect(b); err == nil {
		t.Fatal("expected an error for mismatched clock sets")
	}
}

func TestIntersect_CombinesConstraints(t *testing.T) {
	a := NewUnconstrained([]string{"x"}).DelayFuture()
	aTight, err := a.Conjugate("x", "", RelLe, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bTight, err := a.Conjugate("x", "", RelLe, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := aTight.Intersect(bTight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, hi, _, _ := out.Interval("x")
	if hi != 3 {
		t.Errorf("intersected upper bound = %d, want 3 (the tighter of the two)", hi)
	}
}

func TestIncludes_ReflexiveAndTighterIsIncluded(t *testing.T) {
	wide := NewUnconstrained([]string{"x"}).DelayFuture()
	tight, err := wide.Conjugate("x", "", RelLe, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wide.Includes(wide) {
		t.Error("a DBM should include itself")
	}
	if !wide.Includes(tight) {
		t.Error("a wider DBM should include a tighter one")
	}
	if tight.Includes(wide) {
		t.Error("a tighter DBM should not include a wider one")
	}
}

func TestUnion_IsAtLeastAsWideAsEitherOperand(t *testing.T) {
	wide := NewUnconstrained([]string{"x"}).DelayFuture()
	a, err := wide.Conjugate("x", "", RelLe, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := wide.Conjugate("x", "", RelLe, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := a.Union(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.Includes(a) || !u.Includes(b) {
		t.Error("union should include both operands")
	}
}
