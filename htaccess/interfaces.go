// Package htaccess defines the interfaces between the rewrite directive
// parser and the evaluator. Subpackages implement them.
package htaccess

import (
	"rewritelab/htaccess/ast"
	"rewritelab/rewrite"

	"github.com/rs/zerolog"
)

// RuleParser translates raw .htaccess text into a directive document. It is
// total over input strings; malformed lines become ast.ParseError nodes.
type RuleParser interface {
	Parse(input string) ast.Document
}

// RuleEvaluator executes a directive document against a request URL.
type RuleEvaluator interface {
	Evaluate(logger zerolog.Logger, doc ast.Document, input rewrite.EvalInput, limits rewrite.Limits) (output rewrite.EvalOutput, err error)
}
