package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/qecware/stitch/internal/codec"
	"github.com/qecware/stitch/internal/interp"
)

// refTable maps auto-generated uuids to stable local names so snapshots
// are byte-identical across runs. Names are assigned in first-appearance
// order within one snapshot.
type refTable struct {
	prefix string
	names  map[string]string
}

func newRefTable(prefix string) *refTable {
	return &refTable{prefix: prefix, names: map[string]string{}}
}

func (r *refTable) name(id string) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	name := fmt.Sprintf("%s%d", r.prefix, len(r.names))
	r.names[id] = name
	return name
}

// Snapshot renders the run's decoding graph as a canonical JSON
// document: every syndrome, detector and observable, with uuids
// normalized to stable refs.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	var (
		stabRefs  = newRefTable("s")
		blockRefs = newRefTable("b")
		opRefs    = newRefTable("L")
	)

	syndromes := make(codec.Array, len(result.Step.Syndromes))
	for i, s := range result.Step.Syndromes {
		syndromes[i] = syndromeSnapshot(s, stabRefs, blockRefs)
	}

	detectors := make(codec.Array, len(result.Step.Detectors))
	for i, d := range result.Step.Detectors {
		members := make(codec.Array, len(d.Syndromes))
		for j, s := range d.Syndromes {
			members[j] = syndromeSnapshot(s, stabRefs, blockRefs)
		}
		detectors[i] = members
	}

	observables := result.Step.LogicalObservables()
	obsArr := make(codec.Array, len(observables))
	for i, o := range observables {
		obsArr[i] = codec.Object{
			"operator":     codec.String(opRefs.name(o.Operator)),
			"basis":        codec.String(o.Basis),
			"measurements": cbitStrings(o.Measurements),
		}
	}

	return codec.MarshalCanonical(codec.Object{
		"scenario":    codec.String(scenarioName),
		"program":     codec.String(result.Program.Name),
		"syndromes":   syndromes,
		"detectors":   detectors,
		"observables": obsArr,
	})
}

func syndromeSnapshot(s *interp.Syndrome, stabRefs, blockRefs *refTable) codec.Object {
	return codec.Object{
		"stabilizer":   codec.String(stabRefs.name(s.Stabilizer)),
		"block":        codec.String(blockRefs.name(s.Block)),
		"round":        codec.Int(s.Round),
		"measurements": cbitStrings(s.Measurements),
		"corrections":  cbitStrings(s.Corrections),
	}
}

func cbitStrings(cbits []interp.Cbit) codec.Array {
	arr := make(codec.Array, len(cbits))
	for i, c := range cbits {
		arr[i] = codec.String(c.String())
	}
	return arr
}

// RunWithGolden runs a scenario and compares its decoding-graph snapshot
// against testdata/golden/{name}.golden.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
