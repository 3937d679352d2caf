// Package regexp2engine implements the rewrite.RegexEngineFactory contract on
// top of github.com/dlclark/regexp2. Patterns are screened for constructs the
// engine cannot execute safely before they are compiled, and compiled matchers
// are kept in an LRU cache keyed by pattern and case sensitivity.
package regexp2engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"rewritelab/rewrite"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// matchTimeout is the hard runtime bound on a single match attempt. The
// syntactic screening below is a conservative pre-filter; this timeout is the
// backstop for anything it lets through.
const matchTimeout = 100 * time.Millisecond

// pcreOnlyTokens are constructs regexp2 either rejects or silently
// misinterprets. The check is textual, not a full pattern parse.
var pcreOnlyTokens = []string{
	"(?R)",
	"(?P>",
	"(?(DEFINE)",
	"(?&",
	"(*",
	`\K`,
	"(?|",
}

// nestedQuantifierRegex finds a quantified group that is itself quantified,
// such as (a+)+ or (x*y)*.
var nestedQuantifierRegex = regexp.MustCompile(`\([^()]*[+*][^()]*\)[+*]`)

// repeatedAlternationRegex finds an alternation group followed by a repetition
// operator; candidates are then checked for overlapping alternatives.
var repeatedAlternationRegex = regexp.MustCompile(`\(([^()]*\|[^()]*)\)(\{\d+(,\d*)?\}|[+*])`)

type cacheKey struct {
	expr   string
	nocase bool
}

type engineFactoryImpl struct {
	maxSubjectLength int
	cache            *lru.Cache[cacheKey, *matcherImpl]
}

// NewRegexEngineFactory creates a rewrite.RegexEngineFactory with the given
// subject-length cap and compiled-matcher cache size.
func NewRegexEngineFactory(maxSubjectLength int, cacheSize int) (rewrite.RegexEngineFactory, error) {
	cache, err := lru.New[cacheKey, *matcherImpl](cacheSize)
	if err != nil {
		return nil, err
	}

	return &engineFactoryImpl{maxSubjectLength: maxSubjectLength, cache: cache}, nil
}

func (f *engineFactoryImpl) NewMatcher(expr string, nocase bool) (m rewrite.RegexMatcher, err error) {
	key := cacheKey{expr: expr, nocase: nocase}
	if cached, ok := f.cache.Get(key); ok {
		return cached, nil
	}

	if f.maxSubjectLength > 0 && len(expr) > f.maxSubjectLength {
		err = &rewrite.PatternError{
			Reason: rewrite.PatternTooLong,
			Expr:   expr,
			Msg:    fmt.Sprintf("pattern length %d exceeds the limit of %d", len(expr), f.maxSubjectLength),
		}
		return
	}

	for _, token := range pcreOnlyTokens {
		if strings.Contains(expr, token) {
			err = &rewrite.PatternError{
				Reason: rewrite.UnsupportedPcre,
				Expr:   expr,
				Msg:    fmt.Sprintf("pattern uses the PCRE-only construct %q", token),
			}
			return
		}
	}

	if nestedQuantifierRegex.MatchString(expr) {
		err = &rewrite.PatternError{
			Reason: rewrite.DangerousPattern,
			Expr:   expr,
			Msg:    "pattern contains nested quantifiers, which risk exponential backtracking",
		}
		return
	}

	if hasOverlappingRepeatedAlternation(expr) {
		err = &rewrite.PatternError{
			Reason: rewrite.DangerousPattern,
			Expr:   expr,
			Msg:    "pattern repeats a group with overlapping alternatives, which risks exponential backtracking",
		}
		return
	}

	opts := regexp2.None
	if nocase {
		opts |= regexp2.IgnoreCase
	}

	re, compileErr := regexp2.Compile(expr, opts)
	if compileErr != nil {
		err = &rewrite.PatternError{
			Reason: rewrite.InvalidSyntax,
			Expr:   expr,
			Msg:    compileErr.Error(),
		}
		return
	}
	re.MatchTimeout = matchTimeout

	matcher := &matcherImpl{re: re, maxSubjectLength: f.maxSubjectLength}
	f.cache.Add(key, matcher)
	m = matcher
	return
}

// hasOverlappingRepeatedAlternation reports whether the pattern repeats an
// alternation group in which two alternatives are identical, such as (a|a){2,}.
func hasOverlappingRepeatedAlternation(expr string) bool {
	for _, groupMatch := range repeatedAlternationRegex.FindAllStringSubmatch(expr, -1) {
		alternatives := strings.Split(groupMatch[1], "|")
		seen := make(map[string]bool)
		for _, alt := range alternatives {
			if seen[alt] {
				return true
			}
			seen[alt] = true
		}
	}

	return false
}

type matcherImpl struct {
	re               *regexp2.Regexp
	maxSubjectLength int
}

// Match presents a subject to the compiled pattern. Subjects longer than the
// configured cap never match. A match attempt that hits the runtime timeout is
// also reported as no match.
func (m *matcherImpl) Match(subject string) (match rewrite.RegexMatch, err error) {
	if m.maxSubjectLength > 0 && len(subject) > m.maxSubjectLength {
		return
	}

	result, matchErr := m.re.FindStringMatch(subject)
	if matchErr != nil || result == nil {
		return
	}

	match.Matched = true
	groups := result.Groups()
	captureCount := len(groups)
	if captureCount > 10 {
		captureCount = 10
	}
	match.CaptureGroups = make([]string, captureCount)
	for i := 0; i < captureCount; i++ {
		match.CaptureGroups[i] = groups[i].String()
	}

	return
}
