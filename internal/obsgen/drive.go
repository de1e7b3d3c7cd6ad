package obsgen

import (
	"context"
	"fmt"
	"os"

	"github.com/tamatch/tamatch/internal/backend"
	"github.com/tamatch/tamatch/internal/matcherbuild"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/simulator"
	"github.com/tamatch/tamatch/internal/symtrace"
	"github.com/tamatch/tamatch/internal/tracegen"
)

// Driver produces a concrete observation trace straight off the back-end
// instead of requiring a caller to already have one on hand: it builds the
// trace-generator variant of a model (internal/tracegen), runs it through
// the same back-end a matcher run uses, extracts a deterministic concrete
// trace (internal/symtrace), and corroborates that trace by replaying its
// discovered edge schedule through the transition-simulator variant
// (internal/simulator) of the unmodified model. GenerateObservation and
// GenerateNegativeObservation then turn the result into actual
// observation data.
type Driver struct {
	Runner         *backend.Runner
	Serialize      func(*ntamodel.System) (string, error)
	SerializeQuery func(*ntamodel.System) (string, error)
	WorkDir        string
	TimePolicy     symtrace.TimePolicy
}

// GenerateConcreteTrace drives a random run of stepCount original edges
// through plain (an already-preprocessed model) and returns the
// observation-ready data points extracted from it. It does not mutate
// plain. SkipReplayCheck disables the transition-simulator corroboration
// step, useful for models whose back-end run is already expensive enough
// without doubling it.
func (d *Driver) GenerateConcreteTrace(ctx context.Context, plain *ntamodel.System, stepCount int, skipReplayCheck bool) ([]matcherbuild.DataPoint, error) {
	genModel := tracegen.Builder{StepCount: stepCount}.Build(plain.Clone())

	rawXML, satisfied, err := d.run(ctx, genModel, "tracegen")
	if err != nil {
		return nil, err
	}
	if !satisfied {
		return nil, fmt.Errorf("obsgen: trace generator could not reach %d steps", stepCount)
	}

	raw, err := symtrace.ParseXML([]byte(rawXML), nil)
	if err != nil {
		return nil, err
	}

	instanceIndex := instanceColumns(plain)
	paired, schedule, err := tracegen.PairTransitions(raw, instanceIndex)
	if err != nil {
		return nil, err
	}

	concrete, err := symtrace.Extract(paired, d.TimePolicy)
	if err != nil {
		return nil, err
	}

	if !skipReplayCheck {
		if err := d.verifyReplay(ctx, plain, schedule, instanceIndex); err != nil {
			return nil, err
		}
	}

	return concreteTraceToDataPoints(plain, concrete), nil
}

// instanceColumns maps every instance name to its column in a schedule, the
// key PairTransitions looks firing processes up by (the trace's proc
// attribute is the instantiated process name, not its template's).
func instanceColumns(m *ntamodel.System) map[string]int {
	idx := map[string]int{}
	for i, inst := range m.Instantiations {
		idx[inst.InstanceName] = i
	}
	return idx
}

// templateColumns re-keys instanceIndex by template name instead of
// instance name: internal/simulator.Builder.Build looks a schedule column up
// by the template it is instrumenting, not by the name the system
// declaration gave the instance built from it.
func templateColumns(m *ntamodel.System, instanceIndex map[string]int) map[string]int {
	idx := map[string]int{}
	for _, inst := range m.Instantiations {
		if col, ok := instanceIndex[inst.InstanceName]; ok {
			idx[inst.TemplateName] = col
		}
	}
	return idx
}

func (d *Driver) run(ctx context.Context, m *ntamodel.System, label string) (string, bool, error) {
	modelXML, err := d.Serialize(m)
	if err != nil {
		return "", false, fmt.Errorf("obsgen: serializing %s model: %w", label, err)
	}
	queryText, err := d.SerializeQuery(m)
	if err != nil {
		return "", false, fmt.Errorf("obsgen: serializing %s query: %w", label, err)
	}
	modelPath, err := backend.WriteModelFile(d.WorkDir, label+"-model.xml", modelXML)
	if err != nil {
		return "", false, err
	}
	queryPath, err := backend.WriteModelFile(d.WorkDir, label+"-query.q", queryText)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(modelPath)
	defer os.Remove(queryPath)

	res, err := d.Runner.Execute(ctx, modelPath, queryPath)
	if err != nil {
		return "", false, err
	}
	if res.IsTimeout {
		return "", false, nil
	}
	return res.Output, res.IsSatisfied, nil
}

// verifyReplay builds the transition-simulator variant of the unmodified
// model constrained to schedule and checks it can still reach
// "initialized && TR_idx == steps", i.e. that the schedule the trace
// generator discovered is a genuine run of plain, not an artifact of the
// extra clocks and committed helpers the trace-generator split introduces.
func (d *Driver) verifyReplay(ctx context.Context, plain *ntamodel.System, schedule [][]int, instanceIndex map[string]int) error {
	replayModel := simulator.Builder{Schedule: simulator.Schedule(schedule)}.Build(plain.Clone(), templateColumns(plain, instanceIndex))
	_, satisfied, err := d.run(ctx, replayModel, "replay")
	if err != nil {
		return err
	}
	if !satisfied {
		return fmt.Errorf("obsgen: extracted edge schedule did not replay against the unmodified model")
	}
	return nil
}

// concreteTraceToDataPoints converts an extracted concrete trace into the
// observation shape GenerateObservation/GenerateNegativeObservation expect:
// one data point per state, carrying every integer variable and, per
// process, its location name and whether that location is committed in the
// unmodified (unsplit) model.
func concreteTraceToDataPoints(plain *ntamodel.System, tr *symtrace.ConcreteTrace) []matcherbuild.DataPoint {
	templateByInstance := map[string]string{}
	for _, inst := range plain.Instantiations {
		templateByInstance[inst.InstanceName] = inst.TemplateName
	}

	states := make([]*symtrace.ConcreteState, 0, len(tr.Steps)+1)
	states = append(states, tr.Init)
	states = append(states, tr.Steps...)

	out := make([]matcherbuild.DataPoint, len(states))
	for i, cs := range states {
		vars := make(map[string]*int64, len(cs.Vars))
		for name, val := range cs.Vars {
			v := val
			vars[name] = &v
		}
		locs := make(map[string]*matcherbuild.LocObservation, len(cs.Locs))
		for proc, locName := range cs.Locs {
			name := locName
			locs[proc] = &matcherbuild.LocObservation{Name: &name, IsCommitted: locIsCommitted(plain, templateByInstance[proc], locName)}
		}
		out[i] = matcherbuild.DataPoint{Time: cs.Time, Vars: vars, Locs: locs}
	}
	return out
}

func locIsCommitted(m *ntamodel.System, templateName, locName string) bool {
	t := m.GetTemplateByName(templateName)
	if t == nil {
		return false
	}
	loc := t.GetLocationByName(locName)
	return loc != nil && loc.Committed
}
