package textrule

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Apply(t *testing.T) {
	rule := Rule{
		Name:        "greeting",
		Pattern:     regexp.MustCompile(`var\s+GREETING\s*=\s*"[^"]*";`),
		Replacement: `var GREETING = computeGreeting();`,
	}

	t.Run("single match is replaced", func(t *testing.T) {
		in := "a();\nvar GREETING = \"hi\";\nb();\n"
		out, err := rule.Apply(in)
		require.NoError(t, err)
		assert.Equal(t, "a();\nvar GREETING = computeGreeting();\nb();\n", out)
	})

	t.Run("no match fails with rule name", func(t *testing.T) {
		_, err := rule.Apply("var OTHER = 1;")
		require.Error(t, err)

		var matchErr *MatchError
		require.True(t, errors.As(err, &matchErr))
		assert.Equal(t, "greeting", matchErr.Rule)
		assert.Equal(t, 0, matchErr.Matches)
		assert.ErrorIs(t, err, ErrNoMatch)
		assert.Contains(t, err.Error(), `"greeting"`)
	})

	t.Run("multiple matches fail", func(t *testing.T) {
		in := `var GREETING = "a"; var GREETING = "b"; var GREETING = "c";`
		_, err := rule.Apply(in)
		require.Error(t, err)

		var matchErr *MatchError
		require.True(t, errors.As(err, &matchErr))
		assert.Equal(t, 3, matchErr.Matches)
		assert.ErrorIs(t, err, ErrAmbiguousMatch)
		assert.Contains(t, err.Error(), "3 matches")
	})

	t.Run("replacement is literal", func(t *testing.T) {
		r := Rule{
			Name:        "dollar",
			Pattern:     regexp.MustCompile(`X`),
			Replacement: `$1 ${name}`,
		}
		out, err := r.Apply("aXb")
		require.NoError(t, err)
		assert.Equal(t, "a$1 ${name}b", out)
	})

	t.Run("nil pattern", func(t *testing.T) {
		_, err := Rule{Name: "broken"}.Apply("x")
		assert.Error(t, err)
	})
}

func TestApplyAll(t *testing.T) {
	first := Rule{Name: "first", Pattern: regexp.MustCompile(`one`), Replacement: "1"}
	second := Rule{Name: "second", Pattern: regexp.MustCompile(`two`), Replacement: "2"}

	out, err := ApplyAll("one two", first, second)
	require.NoError(t, err)
	assert.Equal(t, "1 2", out)

	_, err = ApplyAll("one three", first, second)
	var matchErr *MatchError
	require.True(t, errors.As(err, &matchErr))
	assert.Equal(t, "second", matchErr.Rule)
}

// TestApply_NotIdempotent verifies that a rule whose replacement no longer
// matches its own pattern refuses a second application.
func TestApply_NotIdempotent(t *testing.T) {
	rule := Rule{
		Name:        "literal-url",
		Pattern:     regexp.MustCompile(`var\s+URL\s*=\s*"[^"]*";`),
		Replacement: `var URL = base + PATH;`,
	}

	once, err := rule.Apply(`var URL = "https://example.com";`)
	require.NoError(t, err)

	_, err = rule.Apply(once)
	assert.ErrorIs(t, err, ErrNoMatch)
}
