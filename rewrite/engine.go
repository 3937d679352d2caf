package rewrite

import (
	"github.com/rs/zerolog"
)

// Engine evaluates rewrite directive text against a request URL. One call is
// one complete evaluation; nothing persists between calls, so a single Engine
// is safe for concurrent use.
type Engine interface {
	Evaluate(logger zerolog.Logger, input EvalInput) (output EvalOutput, err error)
}

// EngineFactory creates engines bound to a set of evaluation limits.
type EngineFactory interface {
	NewEngine(limits Limits) (engine Engine, err error)
}
