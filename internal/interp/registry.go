package interp

import (
	"fmt"
	"sort"

	"github.com/qecware/stitch/internal/eka"
)

// Applicator implements one operation kind for one code family. It
// mutates the step in place: appending circuits, generating syndromes and
// detectors, replacing blocks. sameTimeslice tells the applicator whether
// its top-level circuit must merge into the timeslice opened by an
// earlier member of the same parallel group.
type Applicator func(step *Step, op eka.Operation, sameTimeslice, debug bool) error

// Registry maps operation kinds to applicators. The driver resolves every
// kind a program uses before applying anything, so an unknown kind fails
// the whole compilation up front rather than mid-pipeline.
type Registry struct {
	applicators map[eka.OpKind]Applicator
}

func NewRegistry() *Registry {
	return &Registry{applicators: make(map[eka.OpKind]Applicator)}
}

// Register binds a kind to an applicator. Rebinding a kind is an error:
// a registry describes one code family, not a layered override chain.
func (r *Registry) Register(kind eka.OpKind, fn Applicator) error {
	if _, ok := r.applicators[kind]; ok {
		return fmt.Errorf("applicator for %q registered twice", kind)
	}
	r.applicators[kind] = fn
	return nil
}

// Resolve returns the applicator for a kind.
func (r *Registry) Resolve(kind eka.OpKind) (Applicator, error) {
	fn, ok := r.applicators[kind]
	if !ok {
		return nil, &LookupError{What: "operation kind", Key: string(kind)}
	}
	return fn, nil
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []eka.OpKind {
	kinds := make([]eka.OpKind, 0, len(r.applicators))
	for k := range r.applicators {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
