// Package obsgen turns a raw extracted data trace into an observation
// sequence suitable for matching: reducing it to partially-observed,
// deviated, time-shifted data points, or deliberately corrupting one so it
// is guaranteed not to match its source model.
package obsgen

import (
	"math/rand"

	"github.com/tamatch/tamatch/internal/matcherbuild"
)

// Bounds is an inclusive [Lower, Upper] range used wherever the source
// config picks a random count or deviation from a range.
type Bounds struct {
	Lower int
	Upper int
}

// Config mirrors the generation knobs of an observation scenario: which
// parts of a concrete trace survive into the observation, how much they are
// allowed to deviate, and how many data points are kept.
type Config struct {
	AllowVariableObservations bool
	ObservedVariables         []string // nil means "all"

	AllowPartialObservations bool
	PartialVarCountBounds    Bounds

	DefaultDeviationBounds Bounds
	AllowedDeviations      map[string]Bounds

	AllowLocationObservations    bool
	ObservedProcessesForLocation []string // nil means "all"

	TimeShiftBounds *Bounds

	AllowCommittedObservations bool

	ObservationCountBounds   *Bounds
	ForceKeepFirstDataPoint  bool
	ForceKeepLastDataPoint   bool
}

// GenerateObservation reduces and perturbs raw into a positive observation
// sequence per cfg, leaving raw untouched.
func GenerateObservation(cfg Config, raw []matcherbuild.DataPoint) []matcherbuild.DataPoint {
	obs := cloneDataPoints(raw)

	if cfg.TimeShiftBounds != nil {
		applyRandomTimeShift(obs, *cfg.TimeShiftBounds)
		obs = removeNegativeTimePoints(obs)
	}
	if !cfg.AllowCommittedObservations {
		obs = removeCommittedDataPoints(obs)
	}
	if cfg.ObservationCountBounds != nil {
		n := randIntn(cfg.ObservationCountBounds.Lower, cfg.ObservationCountBounds.Upper)
		obs = reduceToNRandomDataPoints(obs, n, cfg.ForceKeepFirstDataPoint, cfg.ForceKeepLastDataPoint)
	}

	for i := range obs {
		transformDataPoint(cfg, &obs[i])
	}
	return obs
}

// GenerateNegativeObservation builds a raw data trace into an observation
// that is guaranteed to violate its source: it corrupts either the final
// timestamp or a final-step variable value by more than the allowed
// deviation, so no matching trace through the original model can explain it.
func GenerateNegativeObservation(cfg Config, raw []matcherbuild.DataPoint) []matcherbuild.DataPoint {
	obs := cloneDataPoints(raw)
	if len(obs) < 2 {
		return obs
	}
	last := &obs[len(obs)-1]

	if rand.Intn(2) == 0 {
		dev := cfg.AllowedDeviations["t"]
		last.Time -= int64(dev.Upper*2 + 1)
		return obs
	}

	const int16Max = 32767
	for name, val := range last.Vars {
		if val == nil {
			continue
		}
		dev, ok := cfg.AllowedDeviations[name]
		if !ok {
			continue
		}
		corrupted := int64(int16Max - (dev.Upper + 1))
		last.Vars[name] = &corrupted
	}
	return obs
}

func transformDataPoint(cfg Config, dp *matcherbuild.DataPoint) {
	if cfg.AllowVariableObservations {
		if cfg.ObservedVariables != nil {
			reduceVarsToSelected(dp, cfg.ObservedVariables, false)
		}
	} else {
		dp.Vars = map[string]*int64{}
	}

	if cfg.AllowPartialObservations {
		reduceVarsToRandom(dp, cfg.PartialVarCountBounds, true)
	}

	applyRandomDeviations(dp, cfg.AllowedDeviations, cfg.DefaultDeviationBounds)

	if cfg.AllowLocationObservations {
		if cfg.ObservedProcessesForLocation != nil {
			reduceLocsToSelected(dp, cfg.ObservedProcessesForLocation, false)
		}
	} else {
		dp.Locs = map[string]*matcherbuild.LocObservation{}
	}
}

func reduceVarsToSelected(dp *matcherbuild.DataPoint, names []string, setRemovedToNil bool) {
	keep := map[string]bool{}
	for _, n := range names {
		keep[n] = true
	}
	for k := range dp.Vars {
		if !keep[k] {
			if setRemovedToNil {
				dp.Vars[k] = nil
			} else {
				delete(dp.Vars, k)
			}
		}
	}
}

func reduceVarsToRandom(dp *matcherbuild.DataPoint, bounds Bounds, setRemovedToNil bool) {
	names := make([]string, 0, len(dp.Vars))
	for k := range dp.Vars {
		names = append(names, k)
	}
	upper := bounds.Upper
	if upper == 0 {
		upper = len(names)
	}
	n := randIntn(bounds.Lower, upper)
	if n > len(names) {
		n = len(names)
	}
	rand.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	reduceVarsToSelected(dp, names[:n], setRemovedToNil)
}

func reduceLocsToSelected(dp *matcherbuild.DataPoint, procs []string, setRemovedToNil bool) {
	keep := map[string]bool{}
	for _, p := range procs {
		keep[p] = true
	}
	for k := range dp.Locs {
		if !keep[k] {
			if setRemovedToNil {
				dp.Locs[k] = nil
			} else {
				delete(dp.Locs, k)
			}
		}
	}
}

func applyRandomDeviations(dp *matcherbuild.DataPoint, bounds map[string]Bounds, defaultBounds Bounds) {
	for name, val := range dp.Vars {
		if val == nil {
			continue
		}
		b, ok := bounds[name]
		if !ok {
			b = defaultBounds
		}
		dev := int64(randIntn(b.Lower, b.Upper))
		sign := int64(1)
		if rand.Intn(2) == 0 {
			sign = -1
		}
		newVal := *val + dev*sign
		dp.Vars[name] = &newVal
	}
}

func applyRandomTimeShift(obs []matcherbuild.DataPoint, bounds Bounds) {
	shift := -int64(randIntn(bounds.Lower, bounds.Upper))
	for i := range obs {
		obs[i].Time += shift
	}
}

func removeNegativeTimePoints(obs []matcherbuild.DataPoint) []matcherbuild.DataPoint {
	kept := obs[:0]
	for _, dp := range obs {
		if dp.Time >= 0 {
			kept = append(kept, dp)
		}
	}
	return kept
}

func removeCommittedDataPoints(obs []matcherbuild.DataPoint) []matcherbuild.DataPoint {
	kept := make([]matcherbuild.DataPoint, 0, len(obs))
	for _, dp := range obs {
		committed := false
		for _, loc := range dp.Locs {
			if loc != nil && loc.IsCommitted {
				committed = true
				break
			}
		}
		if !committed {
			kept = append(kept, dp)
		}
	}
	return kept
}

func reduceToNRandomDataPoints(obs []matcherbuild.DataPoint, n int, keepFirst, keepLast bool) []matcherbuild.DataPoint {
	all := make([]int, len(obs))
	for i := range all {
		all[i] = i
	}
	var keep []int
	if keepFirst && len(all) > 0 {
		keep = append(keep, all[0])
		all = all[1:]
		n--
	}
	if keepLast && len(all) > 0 {
		keep = append(keep, all[len(all)-1])
		all = all[:len(all)-1]
		n--
	}
	if n > len(all) {
		n = len(all)
	}
	if n < 0 {
		n = 0
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	keep = append(keep, all[:n]...)

	keepSet := map[int]bool{}
	for _, i := range keep {
		keepSet[i] = true
	}
	out := make([]matcherbuild.DataPoint, 0, len(keepSet))
	for i, dp := range obs {
		if keepSet[i] {
			out = append(out, dp)
		}
	}
	return out
}

func randIntn(lower, upper int) int {
	if upper <= lower {
		return lower
	}
	return lower + rand.Intn(upper-lower+1)
}

func cloneDataPoints(in []matcherbuild.DataPoint) []matcherbuild.DataPoint {
	out := make([]matcherbuild.DataPoint, len(in))
	for i, dp := range in {
		vars := make(map[string]*int64, len(dp.Vars))
		for k, v := range dp.Vars {
			if v == nil {
				vars[k] = nil
				continue
			}
			val := *v
			vars[k] = &val
		}
		locs := make(map[string]*matcherbuild.LocObservation, len(dp.Locs))
		for k, l := range dp.Locs {
			if l == nil {
				locs[k] = nil
				continue
			}
			copyLoc := *l
			locs[k] = &copyLoc
		}
		out[i] = matcherbuild.DataPoint{Time: dp.Time, Vars: vars, Locs: locs}
	}
	return out
}
