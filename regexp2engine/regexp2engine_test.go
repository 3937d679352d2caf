package regexp2engine

import (
	"errors"
	"strings"
	"testing"

	"rewritelab/rewrite"
)

func newTestFactory(t *testing.T) rewrite.RegexEngineFactory {
	f, err := NewRegexEngineFactory(2048, 128)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	return f
}

func TestSimpleMatchWithCaptures(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	m, err := f.NewMatcher(`^blog/(\d+)/(\w+)$`, false)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	match, err := m.Match("blog/2024/hello")

	// Assert
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	if !match.Matched {
		t.Fatalf("Expected a match")
	}
	if len(match.CaptureGroups) != 3 {
		t.Fatalf("Wrong capture group count: %d", len(match.CaptureGroups))
	}
	if match.CaptureGroups[0] != "blog/2024/hello" {
		t.Fatalf("Wrong full match: %s", match.CaptureGroups[0])
	}
	if match.CaptureGroups[1] != "2024" || match.CaptureGroups[2] != "hello" {
		t.Fatalf("Wrong captures: %v", match.CaptureGroups)
	}
}

func TestNocaseMatch(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	m, err := f.NewMatcher(`^www\.example\.com$`, true)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	match, _ := m.Match("WWW.EXAMPLE.COM")

	// Assert
	if !match.Matched {
		t.Fatalf("Expected a case-insensitive match")
	}
}

func TestCaseSensitiveNoMatch(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	m, err := f.NewMatcher(`^abc$`, false)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	match, _ := m.Match("ABC")

	// Assert
	if match.Matched {
		t.Fatalf("Expected no match")
	}
}

func TestNestedQuantifierRejected(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	_, err := f.NewMatcher(`^(a+)+$`, false)

	// Assert
	var perr *rewrite.PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a PatternError, got: %v", err)
	}
	if perr.Reason != rewrite.DangerousPattern {
		t.Fatalf("Wrong rejection reason: %s", perr.Reason)
	}
	if !strings.Contains(perr.Msg, "nested quantifiers") {
		t.Fatalf("Message should mention nested quantifiers: %s", perr.Msg)
	}
}

func TestOverlappingAlternationRejected(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	_, err := f.NewMatcher(`^(a|a){2,}$`, false)

	// Assert
	var perr *rewrite.PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a PatternError, got: %v", err)
	}
	if perr.Reason != rewrite.DangerousPattern {
		t.Fatalf("Wrong rejection reason: %s", perr.Reason)
	}
}

func TestDistinctAlternationAccepted(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	_, err := f.NewMatcher(`^(a|b){2,}$`, false)

	// Assert
	if err != nil {
		t.Fatalf("Distinct alternatives should be accepted: %s", err)
	}
}

func TestPcreOnlyConstructsRejected(t *testing.T) {
	// Arrange
	f := newTestFactory(t)
	patterns := []string{
		`(?R)`,
		`(?P>name)`,
		`(?(DEFINE)(?<d>\d))`,
		`(?&name)`,
		`(*SKIP)abc`,
		`foo\Kbar`,
		`(?|(a)|(b))`,
	}

	for _, pattern := range patterns {
		// Act
		_, err := f.NewMatcher(pattern, false)

		// Assert
		var perr *rewrite.PatternError
		if !errors.As(err, &perr) {
			t.Fatalf("Expected a PatternError for %q, got: %v", pattern, err)
		}
		if perr.Reason != rewrite.UnsupportedPcre {
			t.Fatalf("Wrong rejection reason for %q: %s", pattern, perr.Reason)
		}
	}
}

func TestPatternTooLongRejected(t *testing.T) {
	// Arrange
	f, err := NewRegexEngineFactory(16, 8)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}

	// Act
	_, err = f.NewMatcher(strings.Repeat("a", 17), false)

	// Assert
	var perr *rewrite.PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a PatternError, got: %v", err)
	}
	if perr.Reason != rewrite.PatternTooLong {
		t.Fatalf("Wrong rejection reason: %s", perr.Reason)
	}
}

func TestInvalidSyntaxRejected(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	_, err := f.NewMatcher(`^(unclosed$`, false)

	// Assert
	var perr *rewrite.PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a PatternError, got: %v", err)
	}
	if perr.Reason != rewrite.InvalidSyntax {
		t.Fatalf("Wrong rejection reason: %s", perr.Reason)
	}
}

func TestOversizedSubjectNeverMatches(t *testing.T) {
	// Arrange
	f, err := NewRegexEngineFactory(16, 8)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	m, err := f.NewMatcher(`a+`, false)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}

	// Act
	match, err := m.Match(strings.Repeat("a", 17))

	// Assert
	if err != nil {
		t.Fatalf("An oversized subject should be a non-match, not an error: %s", err)
	}
	if match.Matched {
		t.Fatalf("Expected no match for an oversized subject")
	}
}

func TestMatcherCacheReturnsSameInstance(t *testing.T) {
	// Arrange
	f := newTestFactory(t)

	// Act
	m1, err := f.NewMatcher(`^cached$`, false)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	m2, err := f.NewMatcher(`^cached$`, false)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	m3, err := f.NewMatcher(`^cached$`, true)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}

	// Assert
	if m1 != m2 {
		t.Fatalf("Same pattern and case sensitivity should hit the cache")
	}
	if m1 == m3 {
		t.Fatalf("Different case sensitivity must not share a cache entry")
	}
}

func TestUnmatchedOptionalGroupIsEmptyString(t *testing.T) {
	// Arrange
	f := newTestFactory(t)
	m, err := f.NewMatcher(`^(a)(b)?$`, false)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}

	// Act
	match, _ := m.Match("a")

	// Assert
	if !match.Matched {
		t.Fatalf("Expected a match")
	}
	if len(match.CaptureGroups) != 3 {
		t.Fatalf("Wrong capture group count: %d", len(match.CaptureGroups))
	}
	if match.CaptureGroups[2] != "" {
		t.Fatalf("Unmatched group should resolve to the empty string: %q", match.CaptureGroups[2])
	}
}
