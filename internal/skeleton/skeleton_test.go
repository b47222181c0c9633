package skeleton

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	src := Embedded()
	assert.True(t, src.IsEmbedded())
	assert.Equal(t, "built-in template", src.String())
	require.NoError(t, src.Validate())

	data, err := fs.ReadFile(src.FS, "www/js/index.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), "var LANDING_URL = ")
	assert.Contains(t, string(data), "var SPLIT_URL_RE = ")
}

func TestEmbedded_IgnorePatterns(t *testing.T) {
	patterns, err := Embedded().IgnorePatterns()
	require.NoError(t, err)
	assert.Equal(t, []string{"*.log", "*.swp"}, patterns)
}

func writeTemplate(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, map[string]string{
		"config.xml":      "<widget/>",
		"package.json":    "{}",
		"www/js/index.js": "",
		IgnoreFile:        "# comment\n\nbuild/\n  *.tmp  \n",
	})

	src, err := FromDir(dir)
	require.NoError(t, err)
	assert.False(t, src.IsEmbedded())
	assert.True(t, filepath.IsAbs(src.Dir))
	require.NoError(t, src.Validate())

	patterns, err := src.IgnorePatterns()
	require.NoError(t, err)
	assert.Equal(t, []string{"build/", "*.tmp"}, patterns)
}

func TestFromDir_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := FromDir(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("regular file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		_, err := FromDir(file)
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, map[string]string{"config.xml": "<widget/>"})

	src, err := FromDir(dir)
	require.NoError(t, err)

	err = src.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package.json, www/js/index.js")

	patterns, err := src.IgnorePatterns()
	require.NoError(t, err)
	assert.Nil(t, patterns)
}
