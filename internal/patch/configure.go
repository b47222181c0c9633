package patch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/cordova-wrap/internal/textrule"
)

// Artifact names a configuration artifact for error reporting.
type Artifact string

const (
	ArtifactConfigXML     Artifact = ConfigXMLFile
	ArtifactPackageJSON   Artifact = PackageJSONFile
	ArtifactRoutingScript Artifact = "index.js"
)

// ArtifactError reports which artifact failed during Configure.
type ArtifactError struct {
	Artifact Artifact
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("error updating %s: %v", e.Artifact, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// IsPatchMismatch reports whether err comes from a routing-script rule
// that did not match exactly once, as opposed to an I/O or parse failure.
func IsPatchMismatch(err error) bool {
	var matchErr *textrule.MatchError
	return errors.As(err, &matchErr)
}

// Configure rewrites config.xml, package.json and the routing script under
// destDir, in that order. It stops at the first failure and returns an
// *ArtifactError; earlier artifacts keep their new content.
func Configure(destDir, appName, appID, version string) error {
	steps := []struct {
		artifact Artifact
		apply    func() error
	}{
		{ArtifactConfigXML, func() error {
			return PatchConfigXML(filepath.Join(destDir, ConfigXMLFile), appName, appID, version)
		}},
		{ArtifactPackageJSON, func() error {
			return PatchPackageJSON(filepath.Join(destDir, PackageJSONFile), appName, appID, version)
		}},
		{ArtifactRoutingScript, func() error {
			return PatchRoutingScript(filepath.Join(destDir, RoutingScriptPath))
		}},
	}

	for _, step := range steps {
		if err := step.apply(); err != nil {
			return &ArtifactError{Artifact: step.artifact, Err: err}
		}
	}
	return nil
}

// Identity is the app identity as recorded in a produced project.
type Identity struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`

	PackageName        string `json:"packageName"`
	DisplayName        string `json:"displayName"`
	PackageVersion     string `json:"packageVersion"`
	PackageDescription string `json:"packageDescription"`

	// RoutingPatched is true when the routing script carries the local
	// landing path instead of a fixed URL.
	RoutingPatched bool `json:"routingPatched"`
}

// Inspect reads the identity fields back from the project at destDir.
func Inspect(destDir string) (*Identity, error) {
	var ident Identity
	var err error

	ident.ID, ident.Version, ident.Name, ident.Description, err =
		readConfigXML(filepath.Join(destDir, ConfigXMLFile))
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactConfigXML, Err: err}
	}

	ident.PackageName, ident.DisplayName, ident.PackageVersion, ident.PackageDescription, err =
		readPackageJSON(filepath.Join(destDir, PackageJSONFile))
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactPackageJSON, Err: err}
	}

	patched, err := routingScriptPatched(filepath.Join(destDir, RoutingScriptPath))
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactRoutingScript, Err: err}
	}
	ident.RoutingPatched = patched

	return &ident, nil
}

// ValidationError represents a single mismatch between a produced project
// and the expected identity.
type ValidationError struct {
	// Field is the artifact field that differs (e.g., "config.xml@id").
	Field string `json:"field"`

	// Message describes the mismatch.
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateIdentity compares ident against the expected name, id and
// version. An empty expectation skips the checks for that value. It
// returns every mismatch found; an empty slice means the project matches.
func ValidateIdentity(ident *Identity, appName, appID, version string) []ValidationError {
	var errs []ValidationError
	check := func(field, got, want string) {
		if got != want {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("got %q, want %q", got, want),
			})
		}
	}

	if appID != "" {
		check("config.xml@id", ident.ID, appID)
		check("package.json#name", ident.PackageName, PackageName(appID))
	}
	if version != "" {
		check("config.xml@version", ident.Version, version)
		check("package.json#version", ident.PackageVersion, version)
	}
	if appName != "" {
		check("config.xml/name", ident.Name, appName)
		check("package.json#displayName", ident.DisplayName, appName)
		check("package.json#description", ident.PackageDescription, Description(appName))
		// description is optional in config.xml
		if ident.Description != "" {
			check("config.xml/description", ident.Description, Description(appName))
		}
	}

	if !ident.RoutingPatched {
		errs = append(errs, ValidationError{
			Field:   "www/js/index.js",
			Message: "routing script still uses a fixed landing URL",
		})
	}
	return errs
}

// routingScriptPatched reports whether the routing script at path has been
// rewritten by PatchRoutingScript.
func routingScriptPatched(path string) (bool, error) {
	raw, err := readText(path)
	if err != nil {
		return false, err
	}
	return strings.Contains(raw, `var LANDING_PATH = "`+LandingPath+`"`) &&
		strings.Contains(raw, splitURLReplacement), nil
}
