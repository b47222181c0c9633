package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/shinji-kodama/cordova-wrap/internal/textrule"
)

// RoutingScriptPath is the routing script location relative to the
// project root.
var RoutingScriptPath = filepath.Join("www", "js", "index.js")

// LandingPath is the landing page, relative to the routing script's
// document, that the patched script navigates to.
const LandingPath = "site/index.html"

// Rule names, reported in MatchError when a statement is missing.
const (
	RuleLandingURL   = "landing-url"
	RuleSplitPattern = "split-url-pattern"
)

// landingURLReplacement derives LANDING_URL from the current document's
// directory instead of a fixed absolute URL, so the site loads from the
// app's file:// root.
const landingURLReplacement = `var LANDING_PATH = "` + LandingPath + `";
// Resolve the landing page next to the current document so file:// loading works.
var LANDING_URL = (function () {
    var path = window.location.pathname;
    return path.substring(0, path.lastIndexOf("/") + 1) + LANDING_PATH;
})();`

// splitURLReplacement makes the scheme+host group optional so local paths
// still split into origin, path, query and fragment.
const splitURLReplacement = `var SPLIT_URL_RE = /^((?:[^:/]+:\/\/[^/]*)?)(\/[^?]*)(?:\?([^#]*))?(?:#(.*))?$/i;`

var routingRules = []textrule.Rule{
	{
		Name: RuleLandingURL,
		// Only a string literal assignment matches; the patched form does not.
		Pattern:     regexp.MustCompile(`var\s+LANDING_URL\s*=\s*(?:"[^"\n]*"|'[^'\n]*')\s*;`),
		Replacement: landingURLReplacement,
	},
	{
		Name: RuleSplitPattern,
		// Matches the network-origin variant whose first group is mandatory,
		// e.g. /^([^:/]+:\/\/[^/]+)(\/[^?]*).../i
		Pattern:     regexp.MustCompile(`var\s+SPLIT_URL_RE\s*=\s*/\^\(\[\^:/\]\+:[^\n]*;`),
		Replacement: splitURLReplacement,
	},
}

// RoutingRules returns the rewrite rules applied to the routing script,
// in application order.
func RoutingRules() []textrule.Rule {
	return append([]textrule.Rule(nil), routingRules...)
}

// RewriteRoutingScript applies the routing rules to content. Each rule must
// match exactly once; otherwise a *textrule.MatchError names the statement
// that drifted.
func RewriteRoutingScript(content string) (string, error) {
	return textrule.ApplyAll(content, routingRules...)
}

// PatchRoutingScript rewrites the routing script at path in place. The
// file is not touched unless both rules apply.
func PatchRoutingScript(path string) error {
	raw, err := readText(path)
	if err != nil {
		return err
	}

	patched, err := RewriteRoutingScript(raw)
	if err != nil {
		return fmt.Errorf("failed to patch %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(raw), nil
}
