package repcode

import (
	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// NewRegistry binds the full operation vocabulary to the repetition-code
// applicators.
func NewRegistry() (*interp.Registry, error) {
	registry := interp.NewRegistry()
	for kind, fn := range map[eka.OpKind]interp.Applicator{
		eka.OpMeasureSyndromes: measureSyndromes,
		eka.OpMeasureLogical:   measureLogical,
		eka.OpApplyLogical:     applyLogical,
		eka.OpResetData:        resetData,
		eka.OpResetAncilla:     resetAncilla,
		eka.OpGrow:             grow,
		eka.OpShrink:           shrink,
		eka.OpMerge:            merge,
		eka.OpSplit:            split,
	} {
		if err := registry.Register(kind, fn); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
