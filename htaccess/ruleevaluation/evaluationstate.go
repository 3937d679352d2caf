package ruleevaluation

import (
	"net/url"
	"strings"
)

// captureSlots is the number of backreference slots kept per match. Slot 0 is
// the full match on the rule side; $N and %N references are bounded to 1..9.
const captureSlots = 10

// evaluationState is the mutable state of one evaluation. A fresh state is
// built per Evaluate call; nothing persists across calls.
type evaluationState struct {
	scheme      string
	host        string
	currentPath string // without leading '/'
	queryString string // without leading '?'

	env map[string]string

	ruleCaptures [captureSlots]string
	condCaptures [captureSlots]string

	rewriteBase   string
	engineEnabled bool
	stopped       bool
	hardStop      bool
	redirect      *int
	iterations    int
}

func newEvaluationState(requestURL string, serverVariables map[string]string) (s *evaluationState, err error) {
	u, err := url.Parse(requestURL)
	if err != nil {
		return
	}

	s = &evaluationState{
		scheme:      u.Scheme,
		host:        u.Host,
		currentPath: strings.TrimPrefix(u.Path, "/"),
		queryString: u.RawQuery,
		rewriteBase: "/",
		env:         make(map[string]string, len(serverVariables)+2),
	}

	for name, value := range serverVariables {
		s.env[name] = value
	}

	requestURI := "/" + s.currentPath
	if s.queryString != "" {
		requestURI += "?" + s.queryString
	}
	s.env["REQUEST_URI"] = requestURI
	s.env["QUERY_STRING"] = s.queryString

	return
}

// finalURL reassembles the URL from the current components.
func (s *evaluationState) finalURL() string {
	var b strings.Builder
	b.WriteString(s.scheme)
	b.WriteString("://")
	b.WriteString(s.host)
	b.WriteString("/")
	b.WriteString(s.currentPath)
	if s.queryString != "" {
		b.WriteString("?")
		b.WriteString(s.queryString)
	}
	return b.String()
}
