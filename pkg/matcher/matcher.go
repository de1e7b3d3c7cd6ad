// Package matcher orchestrates a single observation-matching run: it
// preprocesses the input model, builds the matcher product automaton,
// invokes the external model checker (with an optional result cache in
// front of it), and turns a satisfying run's trace back into a symbolic
// trace grouped by observation step.
package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tamatch/tamatch/internal/backend"
	"github.com/tamatch/tamatch/internal/cache"
	"github.com/tamatch/tamatch/internal/matcherbuild"
	"github.com/tamatch/tamatch/internal/modelxform"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/obslog"
	"github.com/tamatch/tamatch/internal/symtrace"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// MatcherType selects which internal/matcherbuild builder constructs the
// product automaton.
type MatcherType string

const (
	// TypeRaw selects the infrastructure-free chain-of-locations builder.
	TypeRaw MatcherType = "R"
	// TypeExtended selects the full feature-flagged builder.
	TypeExtended MatcherType = "B"
)

// ModelSerializer renders a system to the XML dialect the external
// model-checker reads. Callers inject it (cmd/tamatch passes
// internal/uppaalxml.Model); everything else in Matcher is agnostic to the
// concrete wire format.
type ModelSerializer func(m *ntamodel.System) (string, error)

// QuerySerializer renders a system's queries to the back-end's query-file
// format.
type QuerySerializer func(m *ntamodel.System) (string, error)

// Result is the outcome of a Match call.
type Result struct {
	IsMatching    bool
	IsTimeout     bool
	MatchingTrace *symtrace.Trace
}

// Matcher drives one matching configuration end to end: preprocessing,
// matcher-model construction, back-end invocation, and trace extraction.
// Its Set* methods and Prepare/Create split mirror a staged construction
// sequence, so a caller holding a fixed model across many observation
// sequences can reuse the preprocessed-but-not-matcher-built copy instead
// of repreprocessing the model on every call.
type Matcher struct {
	Runner         *backend.Runner
	Cache          *cache.Cache // nil disables the result cache
	Serialize      ModelSerializer
	SerializeQuery QuerySerializer
	WorkDir        string // directory verifyta input files are written under
	Flags          matcherbuild.Flags
	TimePolicy     symtrace.TimePolicy // not read by any Matcher method; internal/obsgen.Driver has its own TimePolicy
	Log            *obslog.Recorder

	model        *ntamodel.System
	instanceData map[string]modelxform.InstanceData
	observation  []matcherbuild.DataPoint
	matcherType  MatcherType

	preparedModel *ntamodel.System // preprocessed, not yet matcher-built
	matcherModel  *ntamodel.System // preprocessed + matcher-built
}

// New returns a Matcher ready to have a model and observation data set on
// it. logf may be nil to discard stage timing.
func New(runner *backend.Runner, c *cache.Cache, serialize ModelSerializer, serializeQuery QuerySerializer, workDir string, logf func(format string, args ...interface{})) *Matcher {
	return &Matcher{
		Runner:         runner,
		Cache:          c,
		Serialize:      serialize,
		SerializeQuery: serializeQuery,
		WorkDir:        workDir,
		matcherType:    TypeExtended,
		Log:            obslog.NewRecorder(logf),
	}
}

// SetModel installs the input model and the data needed to resolve any
// implicit instantiation it declares, invalidating whatever was previously
// prepared or built.
func (m *Matcher) SetModel(model *ntamodel.System, instanceData map[string]modelxform.InstanceData) {
	m.model = model
	m.instanceData = instanceData
	m.preparedModel = nil
	m.matcherModel = nil
}

// SetObservationData installs the observation sequence to match against,
// invalidating whatever matcher model was previously built (the
// observation is baked into the matcher template's constants).
func (m *Matcher) SetObservationData(obs []matcherbuild.DataPoint) {
	m.observation = obs
	m.matcherModel = nil
}

// SetMatcherType selects the builder used by CreateMatcherModel. "R"
// selects the raw builder; anything else selects the extended builder.
func (m *Matcher) SetMatcherType(t MatcherType) {
	if t != TypeRaw {
		t = TypeExtended
	}
	m.matcherType = t
	m.matcherModel = nil
}

// PrepareMatcherModel runs the preprocessing pipeline over the installed
// model and caches the flattened result for reuse by CreateMatcherModel.
func (m *Matcher) PrepareMatcherModel() error {
	if m.model == nil {
		return &xerrors.TransformError{Stage: xerrors.StageMatcherBuild, Details: "no model installed"}
	}
	prepped, err := modelxform.Preprocess(m.model, m.instanceData)
	if err != nil {
		return err
	}
	m.preparedModel = prepped
	return nil
}

// PreparedModel returns the preprocessed model cached by the last
// PrepareMatcherModel call, or nil if none has run yet. Callers driving the
// trace-generator variant of the model (internal/obsgen) need this
// flattened-but-not-matcher-built copy rather than the raw input model.
func (m *Matcher) PreparedModel() *ntamodel.System {
	return m.preparedModel
}

// CreateMatcherModel builds the matcher product automaton over the
// installed model and observation data. When usePrepared is true it reuses
// the copy from the last PrepareMatcherModel call (preprocessing it fresh
// if none exists) instead of reprocessing the input model; this is the
// fast path for matching many observation sequences against one model.
func (m *Matcher) CreateMatcherModel(usePrepared bool) error {
	if !usePrepared || m.preparedModel == nil {
		if err := m.PrepareMatcherModel(); err != nil {
			return err
		}
	}
	base := m.preparedModel.Clone()

	switch m.matcherType {
	case TypeRaw:
		m.matcherModel = matcherbuild.RawBuilder{}.Build(base, m.observation)
	default:
		b := &matcherbuild.ExtendedBuilder{Flags: m.Flags}
		built, err := b.Build(base, m.observation)
		if err != nil {
			return err
		}
		m.matcherModel = built
	}
	return nil
}

// Match runs one matching attempt for obs. useExistingMatcher reuses the
// matcher model already built by a prior CreateMatcherModel call instead of
// building a fresh one (skipping both preprocessing and matcher
// construction); usePrepared is forwarded to CreateMatcherModel when a
// fresh matcher model is needed.
//
// A BackendError with Kind BackendTimeout is not propagated as an error: it
// surfaces as Result.IsTimeout. Every other failure mode (a malformed
// model, a launch failure, a malformed trace) is fatal and returned as an
// error.
func (m *Matcher) Match(ctx context.Context, obs []matcherbuild.DataPoint, returnTrace, useExistingMatcher, usePrepared bool) (*Result, error) {
	var result *Result
	err := m.Log.Track("match", func() error {
		var innerErr error
		result, innerErr = m.match(ctx, obs, returnTrace, useExistingMatcher, usePrepared)
		return innerErr
	})
	return result, err
}

func (m *Matcher) match(ctx context.Context, obs []matcherbuild.DataPoint, returnTrace, useExistingMatcher, usePrepared bool) (*Result, error) {
	m.SetObservationData(obs)

	if !useExistingMatcher || m.matcherModel == nil {
		if err := m.Log.Track("build", func() error { return m.CreateMatcherModel(usePrepared) }); err != nil {
			return nil, err
		}
	}

	modelXML, err := m.Serialize(m.matcherModel)
	if err != nil {
		return nil, fmt.Errorf("matcher: serializing matcher model: %w", err)
	}
	queryText, err := m.SerializeQuery(m.matcherModel)
	if err != nil {
		return nil, fmt.Errorf("matcher: serializing queries: %w", err)
	}

	obsJSON, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("matcher: encoding observation data for cache key: %w", err)
	}
	flagsJSON, _ := json.Marshal(m.Flags)
	key := cache.Key(modelXML, string(obsJSON), string(m.matcherType)+string(flagsJSON))

	// The cache only ever stores a satisfied/timeout verdict, not a trace,
	// so a cache hit is only usable when the caller does not need one back.
	if m.Cache != nil && !returnTrace {
		if v, ok, cerr := m.Cache.Get(ctx, key); cerr == nil && ok {
			return &Result{IsMatching: v.IsSatisfied, IsTimeout: v.IsTimeout}, nil
		}
	}

	modelPath, err := backend.WriteModelFile(m.WorkDir, "matcher-model.xml", modelXML)
	if err != nil {
		return nil, err
	}
	queryPath, err := backend.WriteModelFile(m.WorkDir, "matcher-query.q", queryText)
	if err != nil {
		return nil, err
	}
	defer os.Remove(modelPath)
	defer os.Remove(queryPath)

	var res *backend.Result
	if err := m.Log.Track("verifyta", func() error {
		var rerr error
		res, rerr = m.Runner.Execute(ctx, modelPath, queryPath)
		return rerr
	}); err != nil {
		return nil, err
	}

	if res.IsTimeout {
		return &Result{IsTimeout: true}, nil
	}

	if m.Cache != nil && !returnTrace {
		_ = m.Cache.Put(ctx, key, cache.Verdict{IsSatisfied: res.IsSatisfied, IsTimeout: false})
	}

	if !res.IsSatisfied || !returnTrace {
		return &Result{IsMatching: res.IsSatisfied}, nil
	}

	trace, err := m.traceFromOutput(res.Output)
	if err != nil {
		return nil, err
	}
	return &Result{IsMatching: true, MatchingTrace: trace}, nil
}

// traceFromOutput parses the back-end's trace XML and merges the symbolic
// states belonging to one observation step into the step-grouped symbolic
// trace returned to the caller.
//
// This stops short of symtrace.Extract deliberately: Extract needs a
// delay_state intermediate per transition (the zone after a transition's
// guard held but before its resets applied), and a witness trace walked
// through the matcher product automaton never has one — every state it
// visits is already past whatever reset its edge performed. Only a trace
// built by pairing a trace generator's split guard/update sub-edges
// (internal/tracegen) carries a genuine delay_state, and that pairing
// happens in the trace-generator driving path, not here.
func (m *Matcher) traceFromOutput(traceXML string) (*symtrace.Trace, error) {
	var symbolic *symtrace.Trace
	err := m.Log.Sub("trace").Track("parse", func() error {
		var perr error
		symbolic, perr = symtrace.ParseXML([]byte(traceXML), nil)
		return perr
	})
	if err != nil {
		return nil, err
	}

	merged, err := mergeTraceGroups(symbolic)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

const traceMatcherProc = "Trace_Matcher"

// mergeTraceGroups collapses every run of consecutive raw trace states that
// share the same Trace_Matcher location into one combined state, unioning
// their clock zones, and rebuilds the transition list between the merged
// states. A verifyta run steps through committed and urgent synchronization
// locations one edge at a time, so several raw trace states can correspond
// to the model's single logical wait-for-observation-i step; a caller
// re-projecting the trace back onto the original, unmatched model should
// see one state per observation step rather than the matcher's own
// sub-stepping.
//
// This groups by the Trace_Matcher process's own location rather than the
// fixed location-name prefixes the Python backend's equivalent transformer
// keys on (its matcher templates name delay/immediate sub-locations "d",
// "m_i", "d_c", "m_ic"; the matcher templates built by this codebase do
// not use that naming), so it also naturally folds in any other process's
// transient helper locations visited without the Trace_Matcher location
// itself advancing.
func mergeTraceGroups(tr *symtrace.Trace) (*symtrace.Trace, error) {
	if tr.Init == nil {
		return tr, nil
	}

	flat := []*symtrace.State{tr.Init}
	edges := make([]map[string]string, 0, len(tr.Transitions))
	for _, t := range tr.Transitions {
		flat = append(flat, t.Target)
		edges = append(edges, t.TriggeredEdges)
	}

	var states []*symtrace.State
	var statesEdges []map[string]string
	groupStart := 0
	for i := 1; i <= len(flat); i++ {
		if i < len(flat) && flat[i].Locs[traceMatcherProc] == flat[groupStart].Locs[traceMatcherProc] {
			continue
		}
		combined := flat[groupStart]
		for j := groupStart + 1; j < i; j++ {
			merged, err := combined.DBM.Union(flat[j].DBM)
			if err != nil {
				return nil, err
			}
			combined = &symtrace.State{Locs: combined.Locs, Vars: combined.Vars, DBM: merged}
		}
		states = append(states, combined)
		if i < len(flat) {
			statesEdges = append(statesEdges, edges[i-1])
		}
		groupStart = i
	}

	out := &symtrace.Trace{Init: states[0]}
	for i := 1; i < len(states); i++ {
		out.Transitions = append(out.Transitions, &symtrace.Transition{
			Source:         states[i-1],
			Target:         states[i],
			TriggeredEdges: statesEdges[i-1],
		})
	}
	return out, nil
}
