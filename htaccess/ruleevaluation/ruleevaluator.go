// Package ruleevaluation walks a parsed directive document once against a
// request URL, maintaining the rewrite state machine and emitting one trace
// entry per non-blank source line.
package ruleevaluation

import (
	ht "rewritelab/htaccess"
	"rewritelab/htaccess/ast"
	"rewritelab/rewrite"

	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var absoluteURLRegex = regexp.MustCompile(`(?i)^https?://`)

type ruleEvaluatorImpl struct {
	regexFactory rewrite.RegexEngineFactory
}

// NewRuleEvaluator creates an htaccess.RuleEvaluator that compiles directive
// patterns through the given regex engine factory.
func NewRuleEvaluator(regexFactory rewrite.RegexEngineFactory) ht.RuleEvaluator {
	return &ruleEvaluatorImpl{regexFactory: regexFactory}
}

// evaluation carries the per-call working set: the state machine, the trace
// entries filled per node, and the pending condition group.
type evaluation struct {
	logger       zerolog.Logger
	regexFactory rewrite.RegexEngineFactory
	limits       rewrite.Limits
	state        *evaluationState
	doc          ast.Document

	// entries is parallel to doc. Blank nodes never get an entry; every other
	// node gets exactly one. Conditions are traced when their rule is reached,
	// so entries can fill out of source order and are collected at the end.
	entries []*rewrite.TraceLine

	pendingConds []pendingCond
	capExceeded  bool
}

type pendingCond struct {
	idx  int
	node *ast.Cond
}

func (re *ruleEvaluatorImpl) Evaluate(logger zerolog.Logger, doc ast.Document, input rewrite.EvalInput, limits rewrite.Limits) (output rewrite.EvalOutput, err error) {
	state, err := newEvaluationState(input.URL, input.ServerVariables)
	if err != nil {
		err = fmt.Errorf("could not parse the request URL: %w", err)
		return
	}

	e := &evaluation{
		logger:       logger,
		regexFactory: re.regexFactory,
		limits:       limits,
		state:        state,
		doc:          doc,
		entries:      make([]*rewrite.TraceLine, len(doc)),
	}

	e.run()

	output.FinalURL = state.finalURL()
	output.StatusCode = state.redirect
	switch {
	case state.redirect != nil:
		output.Status = rewrite.StatusRedirect
	case e.capExceeded:
		output.Status = rewrite.StatusLimitExceeded
	default:
		output.Status = rewrite.StatusOK
	}
	output.Trace = e.collectTrace()

	logger.Debug().
		Str("finalUrl", output.FinalURL).
		Str("status", string(output.Status)).
		Int("traceLines", len(output.Trace)).
		Msg("Evaluation finished")

	return
}

func (e *evaluation) run() {
	for i, node := range e.doc {
		if e.capExceeded {
			return
		}

		// Once a rule has stopped evaluation, every later line is traced as
		// not reached.
		reached := !e.state.stopped

		switch n := node.(type) {

		case *ast.Blank:

		case *ast.Comment:
			e.trace(i, reached, true, true, "")

		case *ast.EngineToggle:
			e.flushDanglingConds()
			e.state.engineEnabled = n.On
			e.trace(i, reached, true, true, "")

		case *ast.Base:
			e.flushDanglingConds()
			if e.state.engineEnabled {
				e.state.rewriteBase = n.Base
				e.trace(i, reached, true, true, "")
			} else {
				e.trace(i, false, true, true, "")
			}

		case *ast.Cond:
			e.pendingConds = append(e.pendingConds, pendingCond{idx: i, node: n})

		case *ast.Rule:
			e.evalRule(i, n, e.pendingConds)
			e.pendingConds = nil

		case *ast.Unknown:
			e.flushDanglingConds()
			e.trace(i, e.state.engineEnabled && reached, false, true, "Unsupported directive: "+n.DirectiveName)

		case *ast.ParseError:
			e.flushDanglingConds()
			e.trace(i, reached, false, false, n.Message)
		}
	}

	e.flushDanglingConds()
}

// flushDanglingConds deals with conditions that turned out not to precede a
// rule. They gate nothing, but each still owes the trace one entry; they are
// evaluated with the usual group semantics and the outcome is discarded.
func (e *evaluation) flushDanglingConds() {
	if len(e.pendingConds) == 0 {
		return
	}

	if e.state.engineEnabled && !e.state.stopped {
		e.evalCondGroup(e.pendingConds, false)
	} else {
		for _, pc := range e.pendingConds {
			e.trace(pc.idx, false, false, true, "")
		}
	}

	e.pendingConds = nil
}

func (e *evaluation) evalRule(idx int, rule *ast.Rule, conds []pendingCond) {
	s := e.state

	if !s.engineEnabled || s.stopped {
		for _, pc := range conds {
			e.trace(pc.idx, false, false, true, "")
		}
		e.trace(idx, false, false, true, "")
		return
	}

	if !e.evalCondGroup(conds, true) {
		e.trace(idx, false, false, true, "")
		return
	}

	matchPath := e.matchPath()

	matcher, err := e.regexFactory.NewMatcher(rule.Pattern, rule.Flags.Nocase)
	if err != nil {
		e.trace(idx, true, false, false, err.Error())
		return
	}

	match, err := matcher.Match(matchPath)
	if err != nil || !match.Matched {
		e.trace(idx, true, false, true, "")
		return
	}

	for i := 0; i < captureSlots; i++ {
		if i < len(match.CaptureGroups) {
			s.ruleCaptures[i] = match.CaptureGroups[i]
		} else {
			s.ruleCaptures[i] = ""
		}
	}

	e.applySubstitution(rule)
	e.applyFlags(rule.Flags)

	s.iterations++
	e.trace(idx, true, true, true, "")

	if e.limits.MaxIterations > 0 && s.iterations > e.limits.MaxIterations {
		e.logger.Warn().Int("maxIterations", e.limits.MaxIterations).Msg("Iteration cap exceeded")
		e.capExceeded = true
	}
}

// matchPath computes the path presented to the rule pattern: the current path
// with the active non-root base prefix stripped when present.
func (e *evaluation) matchPath() string {
	s := e.state
	base := strings.Trim(s.rewriteBase, "/")
	if base == "" {
		return s.currentPath
	}

	if s.currentPath == base {
		return ""
	}
	if strings.HasPrefix(s.currentPath, base+"/") {
		return s.currentPath[len(base)+1:]
	}

	return s.currentPath
}

// evalCondGroup evaluates a rule's condition group: a sequence of OR chains
// joined by AND. Each condition receives its trace entry here. When commit is
// true and the group is satisfied, condCaptures is overwritten with the
// captures of the last matching condition that produced any.
func (e *evaluation) evalCondGroup(conds []pendingCond, commit bool) bool {
	groupSatisfied := true
	var lastCaptures []string

	i := 0
	for i < len(conds) {
		// The chain runs through the last consecutive ornext condition plus
		// the one after it. A trailing ornext terminates its chain regardless.
		j := i
		for j < len(conds)-1 && conds[j].node.Ornext {
			j++
		}

		chainMatched := false
		for k := i; k <= j; k++ {
			pc := conds[k]
			if chainMatched {
				// OR short-circuit: an earlier member already satisfied the chain.
				e.trace(pc.idx, false, false, true, "")
				continue
			}

			met, captures, rejection := e.evalCond(pc.node)
			if rejection != "" {
				e.trace(pc.idx, true, false, false, rejection)
			} else {
				e.trace(pc.idx, true, met, true, "")
			}

			if met {
				chainMatched = true
				if len(captures) > 0 {
					lastCaptures = captures
				}
			}
		}

		if !chainMatched {
			groupSatisfied = false
		}

		i = j + 1
	}

	if commit && groupSatisfied && lastCaptures != nil {
		for i := 0; i < captureSlots; i++ {
			if i < len(lastCaptures) {
				e.state.condCaptures[i] = lastCaptures[i]
			} else {
				e.state.condCaptures[i] = ""
			}
		}
	}

	return groupSatisfied
}

// evalCond evaluates one condition. A non-empty rejection means the pattern
// was refused by the regex engine; the condition then counts as not met.
// captures holds the full capture array when a real (non-negated) regex match
// produced capture groups.
func (e *evaluation) evalCond(cond *ast.Cond) (met bool, captures []string, rejection string) {
	subject := e.state.expandVariables(cond.TestString)

	matcher, err := e.regexFactory.NewMatcher(cond.CondPattern, cond.Nocase)
	if err != nil {
		rejection = err.Error()
		return
	}

	match, err := matcher.Match(subject)
	matched := err == nil && match.Matched

	met = matched != cond.Negated
	if matched && !cond.Negated && len(match.CaptureGroups) > 1 {
		captures = match.CaptureGroups
	}

	return
}

func (e *evaluation) applySubstitution(rule *ast.Rule) {
	if rule.Substitution == "-" {
		return
	}

	s := e.state
	resolved := s.expandSubstitution(rule.Substitution)

	var newPath, newQuery string
	if absoluteURLRegex.MatchString(resolved) {
		if u, err := url.Parse(resolved); err == nil {
			s.scheme = u.Scheme
			s.host = u.Host
			newPath = u.Path
			newQuery = u.RawQuery
		} else {
			newPath, newQuery = splitQuery(resolved)
		}
	} else {
		newPath, newQuery = splitQuery(resolved)
		if !strings.HasPrefix(newPath, "/") && s.rewriteBase != "/" {
			newPath = strings.TrimSuffix(s.rewriteBase, "/") + "/" + newPath
		}
	}

	switch {
	case rule.Flags.Qsdiscard:
		s.queryString = newQuery
	case rule.Flags.Qsappend && s.queryString != "":
		if newQuery != "" {
			s.queryString = newQuery + "&" + s.queryString
		}
	case newQuery != "":
		s.queryString = newQuery
	}

	s.currentPath = strings.TrimPrefix(newPath, "/")
}

func splitQuery(s string) (path, query string) {
	path, query, _ = strings.Cut(s, "?")
	return
}

func (e *evaluation) applyFlags(flags ast.RuleFlags) {
	s := e.state

	if flags.Redirect != nil {
		status := *flags.Redirect
		s.redirect = &status
		s.stopped = true
	}
	if flags.Forbidden {
		status := 403
		s.redirect = &status
		s.stopped = true
	}
	if flags.Gone {
		status := 410
		s.redirect = &status
		s.stopped = true
	}
	if flags.Last {
		s.stopped = true
	}
	if flags.End {
		s.stopped = true
		s.hardStop = true
	}
}

func (e *evaluation) trace(idx int, reached, met, valid bool, message string) {
	span := e.doc[idx].Pos()
	e.entries[idx] = &rewrite.TraceLine{
		LineNo:  span.LineNo,
		RawLine: strings.TrimSpace(span.Raw),
		Valid:   valid,
		Reached: reached,
		Met:     met,
		Message: message,
	}
}

// collectTrace gathers the filled entries in source order. When the iteration
// cap fired mid-document, nodes past that point were never processed; the
// collection stops at the first directive line without an entry.
func (e *evaluation) collectTrace() []rewrite.TraceLine {
	trace := []rewrite.TraceLine{}
	for i, entry := range e.entries {
		if entry == nil {
			if _, blank := e.doc[i].(*ast.Blank); blank {
				continue
			}
			break
		}
		trace = append(trace, *entry)
	}
	return trace
}
