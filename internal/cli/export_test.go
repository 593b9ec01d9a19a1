package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileToStore(t *testing.T, dbPath string) {
	t.Helper()
	path := writeProgramFile(t, memoryProgram)
	_, err := execute(t, "compile", path, "--store", dbPath)
	require.NoError(t, err)
}

func TestExportCommandStdout(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stitch.db")
	compileToStore(t, dbPath)

	buf, err := execute(t, "export", "memory", "--store", dbPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "memory", doc["name"])
	assert.NotEmpty(t, doc["spec_hash"])
	assert.Len(t, doc["syndromes"], 2)
	assert.Len(t, doc["detectors"], 1)
	assert.Contains(t, doc, "circuit")
}

func TestExportCommandToFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stitch.db")
	compileToStore(t, dbPath)
	artifact := filepath.Join(t.TempDir(), "memory.json")

	buf, err := execute(t, "export", "memory", "--store", dbPath, "--output", artifact)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote artifact document to "+artifact)

	data, err := os.ReadFile(artifact)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "memory", doc["name"])
}

func TestExportCommandBySpecHash(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stitch.db")
	compileToStore(t, dbPath)

	// Recover the hash from a stdout export, then ask for it explicitly.
	buf, err := execute(t, "export", "memory", "--store", dbPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	specHash, ok := doc["spec_hash"].(string)
	require.True(t, ok)

	buf, err = execute(t, "export", "memory", "--store", dbPath, "--spec-hash", specHash)
	require.NoError(t, err)
	var again map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &again))
	assert.Equal(t, doc, again)
}

func TestExportCommandUnknownName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stitch.db")
	compileToStore(t, dbPath)

	buf, err := execute(t, "export", "ghost", "--store", dbPath, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestExportCommandRequiresStore(t *testing.T) {
	_, err := execute(t, "export", "memory")
	require.Error(t, err)
}
