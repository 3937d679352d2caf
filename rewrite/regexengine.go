package rewrite

// RegexEngineFactory is an interface to a factory that compiles directive
// patterns into matchers, rejecting patterns that are unsafe or that use
// syntax the engine cannot faithfully execute.
type RegexEngineFactory interface {
	NewMatcher(expr string, nocase bool) (m RegexMatcher, err error)
}

// RegexMatcher matches one compiled pattern against subject strings.
type RegexMatcher interface {
	Match(subject string) (match RegexMatch, err error)
}

// RegexMatch is the result of presenting a subject to a RegexMatcher.
// CaptureGroups[0] is the full match; unmatched groups are empty strings.
type RegexMatch struct {
	Matched       bool
	CaptureGroups []string
}
