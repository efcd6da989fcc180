package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDecodeSnapshot(t *testing.T) {
	snap, err := decodeSnapshot([]byte(`{"ok":true,"data":{"Mon:01:job":"Install"}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.Snapshot{"Mon:01:job": domain.String("Install")}, snap)

	snap, err = decodeSnapshot([]byte(`{"Mon:01:job":"Install"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.Snapshot{"Mon:01:job": domain.String("Install")}, snap)

	_, err = decodeSnapshot([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.json", `{"Mon:01:job":"Install"}`)
	after := writeFile(t, dir, "after.json", `{"data":{"Mon:01:job":"Repair","Mon:01:pto":true}}`)
	settings := writeFile(t, dir, "settings.json", `{"Lead:01":"Acme Crew"}`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"diff", "--before", before, "--after", after, "--settings", settings, "--week", "2025-W36"})
	require.NoError(t, rootCmd.Execute())

	text := out.String()
	assert.Contains(t, text, "HVAC schedule update — 2025-W36 (2 changes)")
	assert.Contains(t, text, "- Mon 1 — Acme Crew — Job: Install → Repair")
	assert.Contains(t, text, "- Mon 1 — Acme Crew — Lead PTO: — → ✓ PTO")
}

func TestDiffCommandRequiresFiles(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"diff", "--before", "missing.json"})
	assert.Error(t, rootCmd.Execute())
}
