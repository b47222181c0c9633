// Package skeleton provides the Cordova project template that every wrapped
// site is staged into.
//
// The default template is compiled into the binary, so the tool works from
// any directory. A template directory on disk can be used instead (see
// FromDir), e.g. to ship different plugins or a custom routing script.
package skeleton

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFile lists extra staging exclusions, one gitignore-style pattern
// per line, at the template root.
const IgnoreFile = ".wrapignore"

// RequiredFiles are the template files the configuration step rewrites.
// Paths use forward slashes, as fs.FS requires.
var RequiredFiles = []string{
	"config.xml",
	"package.json",
	"www/js/index.js",
}

//go:embed all:template
var embedded embed.FS

// Source is a template tree. It is only ever read; staging copies it.
type Source struct {
	// FS is rooted at the template root.
	FS fs.FS

	// Dir is the absolute template directory when the template lives on
	// disk. It is empty for the embedded template.
	Dir string
}

// Embedded returns the template compiled into the binary.
func Embedded() Source {
	sub, err := fs.Sub(embedded, "template")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return Source{FS: sub}
}

// FromDir returns a Source backed by the directory dir.
func FromDir(dir string) (Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Source{}, fmt.Errorf("failed to resolve template directory %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Source{}, fmt.Errorf("template directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return Source{}, fmt.Errorf("template path %s is not a directory", abs)
	}

	return Source{FS: os.DirFS(abs), Dir: abs}, nil
}

// IsEmbedded reports whether s is the compiled-in template.
func (s Source) IsEmbedded() bool {
	return s.Dir == ""
}

// String names the template for log lines.
func (s Source) String() string {
	if s.IsEmbedded() {
		return "built-in template"
	}
	return s.Dir
}

// Validate checks that every file in RequiredFiles exists in the template.
// All missing files are reported together.
func (s Source) Validate() error {
	if s.FS == nil {
		return errors.New("template has no file system")
	}

	var missing []string
	for _, name := range RequiredFiles {
		info, err := fs.Stat(s.FS, name)
		if err != nil || info.IsDir() {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("template %s is missing required files: %s", s, strings.Join(missing, ", "))
	}
	return nil
}

// IgnorePatterns returns the patterns listed in the template's IgnoreFile.
// Blank lines and lines starting with '#' are skipped. A template without
// the file yields no patterns.
func (s Source) IgnorePatterns() ([]string, error) {
	f, err := s.FS.Open(IgnoreFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", IgnoreFile, err)
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}
	return patterns, nil
}
