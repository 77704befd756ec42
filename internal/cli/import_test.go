package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCommand_ParseFlags(t *testing.T) {
	t.Run("file import", func(t *testing.T) {
		cmd := NewImportCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-file", "apps.json", "-type", "app"}))
		assert.Equal(t, "apps.json", cmd.FilePath)
		assert.Equal(t, "json", cmd.Format)
	})

	t.Run("format inferred from extension", func(t *testing.T) {
		cmd := NewImportCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-file", "agents.CSV"}))
		assert.Equal(t, "csv", cmd.Format)
	})

	t.Run("explicit format wins", func(t *testing.T) {
		cmd := NewImportCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-file", "export.txt", "-format", "jsonl"}))
		assert.Equal(t, "jsonl", cmd.Format)
	})

	t.Run("requires a source", func(t *testing.T) {
		cmd := NewImportCommand()
		assert.Error(t, cmd.ParseFlags([]string{"-type", "app"}))
	})

	t.Run("file and urls are exclusive", func(t *testing.T) {
		cmd := NewImportCommand()
		assert.Error(t, cmd.ParseFlags([]string{"-file", "a.json", "-urls", "b.txt"}))
	})
}

func TestFormatFromExtension(t *testing.T) {
	assert.Equal(t, "jsonl", formatFromExtension("dump.jsonl"))
	assert.Equal(t, "jsonl", formatFromExtension("dump.ndjson"))
	assert.Equal(t, "csv", formatFromExtension("sheet.csv"))
	assert.Equal(t, "json", formatFromExtension("export.json"))
	assert.Equal(t, "json", formatFromExtension("no-extension"))
}

func TestImportCommand_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	payload := `{"apps": [{"name": "Painter", "description": "A drawing app for quick sketches and concept work."}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", path, "-dry-run"}))
	assert.NoError(t, cmd.Run())
}

func TestImportCommand_DryRunRejectsMalformedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", path, "-dry-run"}))
	assert.Error(t, cmd.Run())
}
