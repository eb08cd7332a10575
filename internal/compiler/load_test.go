package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDeckDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeDeckDir(t, map[string]string{
		"surfaces.cue": "package pin\n\nsurfaces: [{id: 1, type: \"so\", params: [5]}]\n",
		"cells.cue":    "package pin\n\ntitle: \"pin\"\ncells: [{id: 1, geom: \"-1\", material: 1, density: 1}]\n",
	})

	d, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "pin", d.Title)
	assert.Len(t, d.Surfaces, 1)
	assert.Len(t, d.Cells, 1)
}

func TestLoadDirErrors(t *testing.T) {
	tests := []struct {
		name  string
		dir   func(t *testing.T) string
		stage LoadStage
	}{
		{
			name:  "missing",
			dir:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			stage: StageNotFound,
		},
		{
			name: "file not dir",
			dir: func(t *testing.T) string {
				return filepath.Join(writeDeckDir(t, map[string]string{"a.cue": "package deck\n\nx: 1\n"}), "a.cue")
			},
			stage: StageNotFound,
		},
		{
			name:  "empty",
			dir:   func(t *testing.T) string { return t.TempDir() },
			stage: StageNoFiles,
		},
		{
			name: "conflict",
			dir: func(t *testing.T) string {
				return writeDeckDir(t, map[string]string{"a.cue": "package deck\n\ntitle: \"a\"\ntitle: \"b\"\n"})
			},
			stage: StageBuild,
		},
		{
			name: "not a deck",
			dir: func(t *testing.T) string {
				return writeDeckDir(t, map[string]string{"a.cue": "package deck\n\ncells: [{geom: \"-1\"}]\n"})
			},
			stage: StageCompile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDir(tt.dir(t))
			require.Error(t, err)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.stage, le.Stage)
		})
	}
}
