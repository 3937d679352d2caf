// Package engine binds the htaccess parser and evaluator into a
// rewrite.Engine. Between parsing and evaluation it enforces the rule-count
// cap; the parser and evaluator do the rest of the work.
package engine

import (
	ht "rewritelab/htaccess"
	"rewritelab/htaccess/ast"
	"rewritelab/rewrite"

	"github.com/rs/zerolog"
)

type engineFactoryImpl struct {
	parser    ht.RuleParser
	evaluator ht.RuleEvaluator
}

// NewEngineFactory creates a rewrite.EngineFactory backed by the given parser
// and evaluator.
func NewEngineFactory(parser ht.RuleParser, evaluator ht.RuleEvaluator) rewrite.EngineFactory {
	return &engineFactoryImpl{parser: parser, evaluator: evaluator}
}

func (f *engineFactoryImpl) NewEngine(limits rewrite.Limits) (engine rewrite.Engine, err error) {
	engine = &engineImpl{parser: f.parser, evaluator: f.evaluator, limits: limits}
	return
}

type engineImpl struct {
	parser    ht.RuleParser
	evaluator ht.RuleEvaluator
	limits    rewrite.Limits
}

func (e *engineImpl) Evaluate(logger zerolog.Logger, input rewrite.EvalInput) (output rewrite.EvalOutput, err error) {
	doc := e.parser.Parse(input.Rules)

	if e.limits.MaxRuleCount > 0 {
		if n := countDirectives(doc); n > e.limits.MaxRuleCount {
			err = &rewrite.TooManyRulesError{Count: n, Limit: e.limits.MaxRuleCount}
			return
		}
	}

	return e.evaluator.Evaluate(logger, doc, input, e.limits)
}

// countDirectives counts the directive lines of a document. Blank lines and
// comments are free; everything else counts toward the rule-count cap.
func countDirectives(doc ast.Document) (n int) {
	for _, node := range doc {
		switch node.(type) {
		case *ast.Blank, *ast.Comment:
		default:
			n++
		}
	}
	return
}
