package obslog

import (
	"errors"
	"testing"
)

func TestTrack_RecordsTotalAndPropagatesError(t *testing.T) {
	var lines []string
	r := NewRecorder(func(format string, args ...interface{}) {
		lines = append(lines, format)
	})

	wantErr := errors.New("boom")
	err := r.Track("extract", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected Track to propagate the error, got %v", err)
	}
	if _, ok := r.Total("extract"); !ok {
		t.Error("expected a recorded total for extract")
	}
	if len(lines) != 1 {
		t.Errorf("expected exactly one log line, got %d", len(lines))
	}
}

func TestSub_ReturnsSameRecorderOnRepeatedCalls(t *testing.T) {
	r := NewRecorder(nil)
	a := r.Sub("matching")
	b := r.Sub("matching")
	if a != b {
		t.Error("expected Sub to return the same nested recorder for the same name")
	}
}

func TestTotals_ReturnsIndependentCopy(t *testing.T) {
	r := NewRecorder(nil)
	_ = r.Track("x", func() error { return nil })
	totals := r.Totals()
	totals["x"] = 0
	if _, ok := r.Total("x"); !ok {
		t.Fatal("expected x still recorded on r")
	}
	if d, _ := r.Total("x"); d == 0 {
		t.Error("mutating the returned copy should not affect the recorder")
	}
}
