package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "wrap.yaml", `
source: site
dest: /tmp/out/My Site
name: My Site
id: com.example.mysite
version: 2.1.0
overwrite: true
platform: ios
template: ./tmpl
exclude:
  - "*.psd"
  - drafts/
dockerImage: example/cordova:12
skipCheck: true
`)
	base := filepath.Dir(path)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "site"), p.Source)
	assert.Equal(t, filepath.Clean("/tmp/out/My Site"), filepath.Clean(p.Dest))
	assert.Equal(t, "My Site", p.Name)
	assert.Equal(t, "com.example.mysite", p.ID)
	assert.Equal(t, "2.1.0", p.Version)
	assert.True(t, p.Overwrite)
	assert.Equal(t, "ios", p.Platform)
	assert.Equal(t, filepath.Join(base, "tmpl"), p.Template)
	assert.Equal(t, []string{"*.psd", "drafts/"}, p.Exclude)
	assert.Equal(t, "example/cordova:12", p.DockerImage)
	assert.True(t, p.SkipCheck)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	path := writeConfig(t, "wrap.yml", "source: site\nplatfrom: ios\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platfrom")
}

func TestLoad_EmptyYAML(t *testing.T) {
	p, err := Load(writeConfig(t, "wrap.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Profile{}, *p)
}

func TestLoad_CUE(t *testing.T) {
	path := writeConfig(t, "wrap.cue", `
source:  "site"
name:    "My Site"
id:      "com.example.mysite"
version: "2.1.0"
exclude: ["*.psd"]
skipCheck: true
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "site"), p.Source)
	assert.Equal(t, "My Site", p.Name)
	assert.Equal(t, "com.example.mysite", p.ID)
	assert.Equal(t, "2.1.0", p.Version)
	assert.Equal(t, []string{"*.psd"}, p.Exclude)
	assert.True(t, p.SkipCheck)
	assert.False(t, p.Overwrite)
	assert.Empty(t, p.Dest)
}

func TestLoad_CUEErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax error", `source: "site`},
		{"unknown field", `sourceDir: "site"`},
		{"wrong type", `overwrite: "yes"`},
		{"not concrete", `name: string`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "wrap.cue", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "wrap.toml", "source = 'x'"))
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvTemplate:    "/opt/template",
		EnvPlatform:    " browser ",
		EnvDockerImage: "",
	}
	p := &Profile{Template: "/profile/template", Platform: "ios", DockerImage: "profile/image"}

	p.ApplyEnv(func(key string) string { return env[key] })

	assert.Equal(t, "/opt/template", p.Template)
	assert.Equal(t, "browser", p.Platform)
	assert.Equal(t, "profile/image", p.DockerImage, "empty variables do not override")
}

func TestRequest(t *testing.T) {
	source := filepath.Join(t.TempDir(), "my-site")

	t.Run("derived defaults", func(t *testing.T) {
		req := (&Profile{Source: source}).Request()
		assert.Equal(t, model.DeriveDefaults(source), req)
	})

	t.Run("profile values win", func(t *testing.T) {
		p := &Profile{
			Source:    source,
			Dest:      "/out",
			Name:      "My Site",
			ID:        "com.example.mysite",
			Version:   "2.1.0",
			Platform:  "ios",
			Overwrite: true,
		}
		req := p.Request()
		assert.Equal(t, source, req.SourceDir)
		assert.Equal(t, "/out", req.DestDir)
		assert.Equal(t, "My Site", req.AppName)
		assert.Equal(t, "com.example.mysite", req.AppID)
		assert.Equal(t, "2.1.0", req.Version)
		assert.Equal(t, "ios", req.Platform)
		assert.True(t, req.Overwrite)
	})

	t.Run("no source", func(t *testing.T) {
		req := (&Profile{}).Request()
		assert.Empty(t, req.SourceDir)
		assert.Equal(t, model.DefaultPlatform, req.Platform)
		assert.Equal(t, model.DefaultVersion, req.Version)
	})
}
