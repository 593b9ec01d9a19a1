package cli

import (
	"fmt"
	"os"

	"github.com/qecware/stitch/internal/codec"
	"github.com/qecware/stitch/internal/store"
)

// artifactDocument encodes a compilation as a single canonical JSON
// document: identity fields plus the typed payloads of every artifact.
// Equivalent compilations produce identical bytes.
func artifactDocument(c *store.Compilation) ([]byte, error) {
	doc := codec.Object{
		"name":      codec.String(c.Name),
		"spec_hash": codec.String(c.SpecHash),
	}

	if c.Circuit != nil {
		payload, err := codec.Payload(c.Circuit)
		if err != nil {
			return nil, fmt.Errorf("encode circuit: %w", err)
		}
		doc["circuit"] = payload
	}

	syndromes := make(codec.Array, 0, len(c.Syndromes))
	for i, s := range c.Syndromes {
		payload, err := codec.Payload(s)
		if err != nil {
			return nil, fmt.Errorf("encode syndrome %d: %w", i, err)
		}
		syndromes = append(syndromes, payload)
	}
	doc["syndromes"] = syndromes

	detectors := make(codec.Array, 0, len(c.Detectors))
	for i, d := range c.Detectors {
		payload, err := codec.Payload(d)
		if err != nil {
			return nil, fmt.Errorf("encode detector %d: %w", i, err)
		}
		detectors = append(detectors, payload)
	}
	doc["detectors"] = detectors

	observables := make(codec.Array, 0, len(c.Observables))
	for i, o := range c.Observables {
		payload, err := codec.Payload(o)
		if err != nil {
			return nil, fmt.Errorf("encode observable %d: %w", i, err)
		}
		observables = append(observables, payload)
	}
	doc["observables"] = observables

	return codec.MarshalCanonical(doc)
}

// writeArtifactFile writes the artifact document for a compilation to disk.
func writeArtifactFile(c *store.Compilation, filename string) error {
	data, err := artifactDocument(c)
	if err != nil {
		return fmt.Errorf("building artifact document: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
