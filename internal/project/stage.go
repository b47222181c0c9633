package project

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/skeleton"
)

// DefaultExcludes are never copied from a template: version control
// metadata, dependency caches, native build output, plugin fetch output,
// this tool's own sources, OS metadata files, and any site content left
// in the template, which is replaced by the source folder.
var DefaultExcludes = []string{
	"/" + model.SiteSubdir,
	".git",
	".gitignore",
	"node_modules",
	"platforms",
	"plugins",
	"*.go",
	"go.mod",
	"go.sum",
	".cache",
	"test_site",
	"test_output",
	".DS_Store",
	"Thumbs.db",
	skeleton.IgnoreFile,
}

// denylist matches template-relative paths against gitignore-style patterns.
type denylist struct {
	matcher gitignore.Matcher
	// skip holds exact slash paths to leave out regardless of patterns.
	skip map[string]bool
}

// newDenylist compiles the given pattern groups into one matcher.
func newDenylist(groups ...[]string) *denylist {
	var patterns []gitignore.Pattern
	for _, group := range groups {
		for _, line := range group {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
	}
	return &denylist{matcher: gitignore.NewMatcher(patterns), skip: map[string]bool{}}
}

// excluded reports whether the slash-separated path rel is denied.
func (d *denylist) excluded(rel string, isDir bool) bool {
	if d == nil || rel == "." {
		return false
	}
	if d.skip[rel] {
		return true
	}
	return d.matcher.Match(strings.Split(rel, "/"), isDir)
}

// copyStats counts what a tree copy did.
type copyStats struct {
	Files    int
	Dirs     int
	Skipped  int
	Symlinks int
}

// copyTree copies every entry of src into dst, which is created if needed.
// Entries denied by deny are skipped along with their subtrees, and
// symbolic links are never followed or recreated. Copied files keep their
// permission bits plus owner-write, so read-only sources (such as the
// embedded template) produce editable files.
func copyTree(src fs.FS, dst string, deny *denylist) (copyStats, error) {
	var stats copyStats

	err := fs.WalkDir(src, ".", func(rel string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("error walking source at %s: %w", rel, walkErr)
		}

		if d.Type()&fs.ModeSymlink != 0 {
			stats.Symlinks++
			return nil
		}

		if deny.excluded(rel, d.IsDir()) {
			stats.Skipped++
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, filepath.FromSlash(rel))

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			if rel != "." {
				stats.Dirs++
			}
			return nil
		}

		if !d.Type().IsRegular() {
			// Devices, sockets and pipes have no place in a project tree.
			stats.Skipped++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		if err := copyFile(src, rel, target, info.Mode().Perm()|0o200); err != nil {
			return err
		}
		stats.Files++
		return nil
	})

	return stats, err
}

// copyFile copies the file at rel in src to dst with the given mode.
func copyFile(src fs.FS, rel, dst string, mode fs.FileMode) error {
	srcFile, err := src.Open(rel)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", rel, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", rel, dst, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// nestedRel returns the slash path of inner relative to outer when inner
// lies strictly inside outer. Both paths must be absolute and clean.
func nestedRel(outer, inner string) (string, bool) {
	rel, err := filepath.Rel(outer, inner)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path.Clean(filepath.ToSlash(rel)), true
}
