// Package obslog times named stages of a matching run and logs them with
// human-readable durations.
package obslog

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Recorder accumulates elapsed times for named stages, mirroring the
// log_dict/log_name timing convention of the matcher's Python backend: a
// top-level stage's total sits alongside whatever sub-stages it chose to
// record explicitly.
type Recorder struct {
	Logf   func(format string, args ...interface{})
	totals map[string]time.Duration
	subs   map[string]*Recorder
}

// NewRecorder returns a Recorder that logs via logf, or discards if logf is
// nil.
func NewRecorder(logf func(format string, args ...interface{})) *Recorder {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Recorder{Logf: logf, totals: map[string]time.Duration{}, subs: map[string]*Recorder{}}
}

// Track runs fn, records its elapsed time under name, and returns fn's error.
func (r *Recorder) Track(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.totals[name] = time.Since(start)
	r.Logf("stage %s finished [elapsed: %s]", name, humanize.RelTime(start, time.Now(), "", ""))
	return err
}

// Sub returns a nested recorder for name, created on first use, so a stage
// can log the breakdown of its own sub-stages without polluting the parent's
// namespace.
func (r *Recorder) Sub(name string) *Recorder {
	if s, ok := r.subs[name]; ok {
		return s
	}
	s := NewRecorder(r.Logf)
	r.subs[name] = s
	return s
}

// Total returns the recorded elapsed time for name and whether it was
// recorded at all.
func (r *Recorder) Total(name string) (time.Duration, bool) {
	d, ok := r.totals[name]
	return d, ok
}

// Totals returns a copy of every stage recorded directly on r (not its
// subs).
func (r *Recorder) Totals() map[string]time.Duration {
	out := make(map[string]time.Duration, len(r.totals))
	for k, v := range r.totals {
		out[k] = v
	}
	return out
}
