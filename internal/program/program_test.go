package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecware/stitch/internal/eka"
)

const caterpillarSource = `
program: {
	name: "caterpillar"

	block: chain: {
		code:     "repetition"
		check:    "Z"
		distance: 3
		position: 5
	}

	groups: [
		[{op: "reset_data", block: "chain", state: "0"}],
		[{op: "measure_syndromes", block: "chain", rounds: 2}],
		[{op: "grow", block: "chain", direction: "right", length: 2}],
		[{op: "measure_syndromes", block: "chain", rounds: 1}],
		[{op: "shrink", block: "chain", direction: "left", length: 2}],
		[{op: "measure_logical", block: "chain", basis: "Z"}],
	]
}
`

func TestCompileCaterpillar(t *testing.T) {
	p, err := Compile(caterpillarSource)
	require.NoError(t, err)

	assert.Equal(t, "caterpillar", p.Name)
	require.Len(t, p.Blocks, 1)
	assert.Equal(t, "chain", p.Blocks[0].Label)
	assert.Len(t, p.Blocks[0].Stabilizers, 2)
	assert.Equal(t, eka.Coord{5, 0, 0}, p.Blocks[0].DataQubits()[0])

	require.Len(t, p.Operations, 6)
	assert.Equal(t, eka.ResetData{Block: "chain", State: eka.StateZero}, p.Operations[0][0])
	assert.Equal(t, eka.MeasureSyndromes{Block: "chain", Rounds: 2}, p.Operations[1][0])
	assert.Equal(t, eka.Grow{Block: "chain", Direction: eka.Right, Length: 2}, p.Operations[2][0])
	assert.Equal(t, eka.Shrink{Block: "chain", Direction: eka.Left, Length: 2}, p.Operations[4][0])
	assert.Equal(t, eka.MeasureLogical{Block: "chain", Basis: "Z", Qubit: 0}, p.Operations[5][0])
}

func TestCompileMergeAndSplit(t *testing.T) {
	p, err := Compile(`
program: {
	name: "surgery"

	block: {
		left: {code: "repetition", check: "X", distance: 2, position: 0}
		right: {code: "repetition", check: "X", distance: 2, position: 3}
	}

	groups: [
		[{op: "reset_data", block: "left", state: "+"},
		 {op: "reset_data", block: "right", state: "+"}],
		[{op: "merge", blocks: ["left", "right"], output: "wide", orientation: "horizontal"}],
		[{op: "split", block: "wide", into: ["a", "b"], position: 2, orientation: "horizontal"}],
		[{op: "apply_logical", block: "a", basis: "X"}],
	]
}
`)
	require.NoError(t, err)

	require.Len(t, p.Blocks, 2)
	require.Len(t, p.Operations, 4)
	assert.Len(t, p.Operations[0], 2)
	assert.Equal(t, eka.Merge{
		Blocks:      [2]string{"left", "right"},
		Output:      "wide",
		Orientation: eka.Horizontal,
	}, p.Operations[1][0])
	assert.Equal(t, eka.Split{
		Block:       "wide",
		Into:        [2]string{"a", "b"},
		Position:    2,
		Orientation: eka.Horizontal,
	}, p.Operations[2][0])
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caterpillar.cue")
	require.NoError(t, os.WriteFile(path, []byte(caterpillarSource), 0o644))

	p, err := CompileFile(path)
	require.NoError(t, err)
	assert.Equal(t, "caterpillar", p.Name)
}

func TestCompileFileMissing(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorContains(t, err, "read program source")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		field  string
	}{
		{
			"missing program struct",
			`other: {}`,
			"program",
		},
		{
			"missing name",
			`program: {block: b: {code: "repetition", check: "Z", distance: 3}}`,
			"name",
		},
		{
			"no blocks",
			`program: {name: "x"}`,
			"block",
		},
		{
			"unknown code family",
			`program: {name: "x", block: b: {code: "toric", check: "Z", distance: 3}}`,
			"code",
		},
		{
			"missing rounds",
			`program: {
				name: "x"
				block: b: {code: "repetition", check: "Z", distance: 3}
				groups: [[{op: "measure_syndromes", block: "b"}]]
			}`,
			"rounds",
		},
		{
			"unknown operation",
			`program: {
				name: "x"
				block: b: {code: "repetition", check: "Z", distance: 3}
				groups: [[{op: "teleport", block: "b"}]]
			}`,
			"op",
		},
		{
			"merge with one input",
			`program: {
				name: "x"
				block: b: {code: "repetition", check: "Z", distance: 3}
				groups: [[{op: "merge", blocks: ["b"], output: "c", orientation: "horizontal"}]]
			}`,
			"blocks",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			require.Error(t, err)
			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestCompileRejectsInvalidParameters(t *testing.T) {
	// Factory and static validation run during compilation, not at
	// interpretation time.
	_, err := Compile(`
program: {
	name: "x"
	block: b: {code: "repetition", check: "Y", distance: 3}
}
`)
	var serr *eka.StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, eka.ErrCodeBadOperation, serr.Code)

	_, err = Compile(`
program: {
	name: "x"
	block: b: {code: "repetition", check: "Z", distance: 3}
	groups: [[{op: "grow", block: "b", direction: "right", length: 0}]]
}
`)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, eka.ErrCodeBadOperation, serr.Code)
}

func TestCompileSyntaxErrorCarriesPosition(t *testing.T) {
	_, err := Compile(`program: {name: "x", block: }`)
	require.Error(t, err)
}
