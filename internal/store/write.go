package store

import (
	"context"
	"fmt"

	"github.com/qecware/stitch/internal/codec"
	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// Compilation is the durable result of interpreting one program: the
// sealed circuit plus the decoding-graph artifacts, in emission order.
type Compilation struct {
	Name        string
	SpecHash    string
	Circuit     *eka.Circuit // nil when the program emitted no circuit
	Syndromes   []*interp.Syndrome
	Detectors   []*interp.Detector
	Observables []*interp.Observable
}

// WriteCompilation stores a compilation and its artifacts in one
// transaction. Idempotent on (name, spec_hash): writing the same
// compilation twice leaves the first copy untouched.
func (s *Store) WriteCompilation(ctx context.Context, c *Compilation) error {
	if c.Name == "" {
		return fmt.Errorf("write compilation: name must not be empty")
	}
	if c.SpecHash == "" {
		return fmt.Errorf("write compilation: spec hash must not be empty")
	}

	var circuitBlob []byte
	if c.Circuit != nil {
		var err error
		circuitBlob, err = codec.Dump(c.Circuit)
		if err != nil {
			return fmt.Errorf("write compilation: marshal circuit: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write compilation: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO compilations (name, spec_hash, circuit)
		VALUES (?, ?, ?)
		ON CONFLICT(name, spec_hash) DO NOTHING
	`, c.Name, c.SpecHash, circuitBlob)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}
	if affected == 0 {
		// Already stored under this identity.
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}

	writeRows := func(table string, artifacts []any) error {
		for i, artifact := range artifacts {
			payload, err := codec.Dump(artifact)
			if err != nil {
				return fmt.Errorf("write compilation: marshal %s[%d]: %w", table, i, err)
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %s (compilation_id, position, payload)
				VALUES (?, ?, ?)
			`, table), id, i, payload); err != nil {
				return fmt.Errorf("write compilation: insert %s[%d]: %w", table, i, err)
			}
		}
		return nil
	}

	if err := writeRows("syndromes", asAny(c.Syndromes)); err != nil {
		return err
	}
	if err := writeRows("detectors", asAny(c.Detectors)); err != nil {
		return err
	}
	if err := writeRows("observables", asAny(c.Observables)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write compilation: commit: %w", err)
	}
	return nil
}

func asAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
