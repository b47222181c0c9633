// Package config loads wrap profiles: files that record the inputs of a
// wrap run so it can be repeated without retyping flags.
//
// A profile is either YAML (.yaml, .yml) or CUE (.cue). Both carry the same
// fields:
//
//	source: ./site
//	dest: ./build/My Site
//	name: My Site
//	id: com.example.mysite
//	version: 2.1.0
//	platform: android
//	exclude: ["*.psd"]
//
// Relative paths are resolved against the directory holding the profile.
// Values are layered: profile, then CORDOVA_WRAP_* environment variables,
// then command-line flags (applied by the CLI).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
)

// Environment variables that override profile values.
const (
	EnvTemplate    = "CORDOVA_WRAP_TEMPLATE"
	EnvPlatform    = "CORDOVA_WRAP_PLATFORM"
	EnvDockerImage = "CORDOVA_WRAP_DOCKER_IMAGE"
)

// Profile holds the settings of a wrap run. Empty fields are unset.
type Profile struct {
	Source      string   `yaml:"source" json:"source,omitempty"`
	Dest        string   `yaml:"dest" json:"dest,omitempty"`
	Name        string   `yaml:"name" json:"name,omitempty"`
	ID          string   `yaml:"id" json:"id,omitempty"`
	Version     string   `yaml:"version" json:"version,omitempty"`
	Overwrite   bool     `yaml:"overwrite" json:"overwrite,omitempty"`
	Platform    string   `yaml:"platform" json:"platform,omitempty"`
	Template    string   `yaml:"template" json:"template,omitempty"`
	Exclude     []string `yaml:"exclude" json:"exclude,omitempty"`
	DockerImage string   `yaml:"dockerImage" json:"dockerImage,omitempty"`
	SkipCheck   bool     `yaml:"skipCheck" json:"skipCheck,omitempty"`
}

// profileSchema closes the set of accepted CUE fields so typos are reported
// instead of silently ignored.
const profileSchema = `
#Profile: {
	source?:      string
	dest?:        string
	name?:        string
	id?:          string
	version?:     string
	overwrite?:   bool
	platform?:    string
	template?:    string
	exclude?:     [...string]
	dockerImage?: string
	skipCheck?:   bool
}
`

// Load reads the profile at path and resolves its relative paths.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var p *Profile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		p, err = parseYAML(data)
	case ".cue":
		p, err = parseCUE(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q: expected .yaml, .yml or .cue", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	p.resolvePaths(filepath.Dir(abs))
	return p, nil
}

func parseYAML(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		// An empty document is an empty profile.
		if errors.Is(err, io.EOF) {
			return &p, nil
		}
		return nil, err
	}
	return &p, nil
}

func parseCUE(data []byte) (*Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(profileSchema).LookupPath(cue.ParsePath("#Profile"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("profile schema: %v", err)
	}

	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("%v", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%v", err)
	}

	var p Profile
	if err := unified.Decode(&p); err != nil {
		return nil, fmt.Errorf("%v", err)
	}
	return &p, nil
}

// resolvePaths makes Source, Dest and Template absolute relative to base.
func (p *Profile) resolvePaths(base string) {
	for _, field := range []*string{&p.Source, &p.Dest, &p.Template} {
		if *field != "" && !filepath.IsAbs(*field) {
			*field = filepath.Join(base, *field)
		}
	}
}

// ApplyEnv overrides profile values from the environment. getenv is
// usually os.Getenv.
func (p *Profile) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvTemplate)); v != "" {
		p.Template = v
	}
	if v := strings.TrimSpace(getenv(EnvPlatform)); v != "" {
		p.Platform = v
	}
	if v := strings.TrimSpace(getenv(EnvDockerImage)); v != "" {
		p.DockerImage = v
	}
}

// Request builds a wrap request from the profile. Fields the profile leaves
// empty are derived from the source folder as model.DeriveDefaults does.
func (p *Profile) Request() model.WrapRequest {
	req := model.WrapRequest{Platform: model.DefaultPlatform, Version: model.DefaultVersion}
	if p.Source != "" {
		req = model.DeriveDefaults(p.Source)
	}
	if p.Dest != "" {
		req.DestDir = p.Dest
	}
	if p.Name != "" {
		req.AppName = p.Name
	}
	if p.ID != "" {
		req.AppID = p.ID
	}
	if p.Version != "" {
		req.Version = p.Version
	}
	if p.Platform != "" {
		req.Platform = p.Platform
	}
	req.Overwrite = p.Overwrite
	return req
}
