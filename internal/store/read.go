package store

import (
	"context"
	"fmt"

	"github.com/qecware/stitch/internal/codec"
)

// CompilationInfo summarizes one stored compilation.
type CompilationInfo struct {
	Name      string
	SpecHash  string
	CreatedAt string
}

// ReadCompilation loads a compilation and all its artifacts.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadCompilation(ctx context.Context, name, specHash string) (*Compilation, error) {
	var (
		id          int64
		circuitBlob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, circuit FROM compilations
		WHERE name = ? AND spec_hash = ?
	`, name, specHash).Scan(&id, &circuitBlob)
	if err != nil {
		return nil, fmt.Errorf("read compilation %q: %w", name, err)
	}
	return s.readArtifacts(ctx, id, name, specHash, circuitBlob)
}

// ReadLatest loads the most recently written compilation with the given
// name. Returns an error wrapping sql.ErrNoRows if none exists.
func (s *Store) ReadLatest(ctx context.Context, name string) (*Compilation, error) {
	var (
		id          int64
		specHash    string
		circuitBlob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, spec_hash, circuit FROM compilations
		WHERE name = ?
		ORDER BY id DESC
		LIMIT 1
	`, name).Scan(&id, &specHash, &circuitBlob)
	if err != nil {
		return nil, fmt.Errorf("read latest compilation %q: %w", name, err)
	}
	return s.readArtifacts(ctx, id, name, specHash, circuitBlob)
}

// ListCompilations returns summaries of every stored compilation,
// ordered by insertion.
func (s *Store) ListCompilations(ctx context.Context) ([]CompilationInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, spec_hash, created_at FROM compilations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	defer rows.Close()

	infos := []CompilationInfo{}
	for rows.Next() {
		var info CompilationInfo
		if err := rows.Scan(&info.Name, &info.SpecHash, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("list compilations: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	return infos, nil
}

func (s *Store) readArtifacts(ctx context.Context, id int64, name, specHash string, circuitBlob []byte) (*Compilation, error) {
	c := &Compilation{Name: name, SpecHash: specHash}

	if len(circuitBlob) > 0 {
		circuit, err := codec.LoadCircuit(circuitBlob)
		if err != nil {
			return nil, fmt.Errorf("read compilation %q: circuit: %w", name, err)
		}
		c.Circuit = circuit
	}

	payloads, err := s.readPayloads(ctx, "syndromes", id)
	if err != nil {
		return nil, err
	}
	for i, payload := range payloads {
		syndrome, err := codec.LoadSyndrome(payload)
		if err != nil {
			return nil, fmt.Errorf("read compilation %q: syndromes[%d]: %w", name, i, err)
		}
		c.Syndromes = append(c.Syndromes, syndrome)
	}

	payloads, err = s.readPayloads(ctx, "detectors", id)
	if err != nil {
		return nil, err
	}
	for i, payload := range payloads {
		detector, err := codec.LoadDetector(payload)
		if err != nil {
			return nil, fmt.Errorf("read compilation %q: detectors[%d]: %w", name, i, err)
		}
		c.Detectors = append(c.Detectors, detector)
	}

	payloads, err = s.readPayloads(ctx, "observables", id)
	if err != nil {
		return nil, err
	}
	for i, payload := range payloads {
		observable, err := codec.LoadObservable(payload)
		if err != nil {
			return nil, fmt.Errorf("read compilation %q: observables[%d]: %w", name, i, err)
		}
		c.Observables = append(c.Observables, observable)
	}

	return c, nil
}

// readPayloads returns a table's payloads for one compilation in
// emission order.
func (s *Store) readPayloads(ctx context.Context, table string, id int64) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT payload FROM %s
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, table), id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return payloads, nil
}
