// Package textrule applies declarative text rewrites of the form
// "locate the statement matching P exactly once and replace it with L".
//
// Rewriting source files with regular expressions is fragile, so a Rule
// refuses to act unless its pattern matches exactly one location. A
// template that drifted (statement renamed, removed, or duplicated) makes
// the rule fail loudly instead of shipping a half-patched file.
package textrule

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoMatch is returned (wrapped in a MatchError) when a rule's pattern
// does not occur in the input.
var ErrNoMatch = errors.New("pattern did not match")

// ErrAmbiguousMatch is returned (wrapped in a MatchError) when a rule's
// pattern occurs more than once.
var ErrAmbiguousMatch = errors.New("pattern matched more than once")

// Rule replaces the single occurrence of Pattern with Replacement.
// Replacement is inserted literally; "$1"-style expansion is not applied.
type Rule struct {
	// Name identifies the rule in error messages (e.g., "landing-url").
	Name string

	// Pattern locates the statement to replace.
	Pattern *regexp.Regexp

	// Replacement is the literal text that replaces the match.
	Replacement string
}

// MatchError reports which rule failed and how many matches were found.
type MatchError struct {
	Rule    string
	Matches int
	Err     error
}

func (e *MatchError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("rule %q: %v (%d matches)", e.Rule, e.Err, e.Matches)
	}
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// Apply returns content with the rule's single match replaced.
func (r Rule) Apply(content string) (string, error) {
	if r.Pattern == nil {
		return "", fmt.Errorf("rule %q: nil pattern", r.Name)
	}

	locs := r.Pattern.FindAllStringIndex(content, 2)
	switch len(locs) {
	case 0:
		return "", &MatchError{Rule: r.Name, Matches: 0, Err: ErrNoMatch}
	case 1:
	default:
		// Count all matches so the error tells the user how bad the drift is.
		n := len(r.Pattern.FindAllStringIndex(content, -1))
		return "", &MatchError{Rule: r.Name, Matches: n, Err: ErrAmbiguousMatch}
	}

	start, end := locs[0][0], locs[0][1]
	return content[:start] + r.Replacement + content[end:], nil
}

// ApplyAll applies rules in order, feeding each one the previous result.
// It stops at the first failing rule and returns its error; content is
// only returned when every rule succeeded.
func ApplyAll(content string, rules ...Rule) (string, error) {
	out := content
	for _, rule := range rules {
		next, err := rule.Apply(out)
		if err != nil {
			return "", err
		}
		out = next
	}
	return out, nil
}
