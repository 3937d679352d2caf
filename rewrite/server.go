package rewrite

import (
	"errors"
	"fmt"
	"time"

	"rewritelab/encoding"

	"github.com/rs/zerolog"
)

// Input-shape errors reported at the host boundary, before the engine runs.
var (
	ErrURLMissing     = errors.New("url is required")
	ErrURLTooLong     = errors.New("url exceeds the configured length limit")
	ErrURLBadEncoding = errors.New("url contains invalid percent-escapes")
	ErrRulesMissing   = errors.New("rules are required")
)

// TooManyRulesError is returned when the parsed directive count exceeds the
// configured cap.
type TooManyRulesError struct {
	Count int
	Limit int
}

func (e *TooManyRulesError) Error() string {
	return fmt.Sprintf("input contains %d directives, limit is %d", e.Count, e.Limit)
}

// Server is the top level interface hosts wrap. It validates the input shape
// and then delegates to the engine.
type Server interface {
	EvalRequest(input EvalInput) (output EvalOutput, err error)
}

type serverImpl struct {
	logger        zerolog.Logger
	engine        Engine
	limits        Limits
	resultsLogger ResultsLogger
}

// NewServer creates the host-boundary facade around an engine.
func NewServer(logger zerolog.Logger, engine Engine, limits Limits, resultsLogger ResultsLogger) Server {
	return &serverImpl{
		logger:        logger,
		engine:        engine,
		limits:        limits,
		resultsLogger: resultsLogger,
	}
}

func (s *serverImpl) EvalRequest(input EvalInput) (output EvalOutput, err error) {
	logger := s.logger.With().Str("url", input.URL).Logger()

	if logger.Info() != nil {
		startTime := time.Now()
		defer func() {
			logger.Info().Dur("timeTaken", time.Since(startTime)).Str("status", string(output.Status)).Msg("Evaluation completed")
		}()
	}

	if err = s.validate(input); err != nil {
		s.resultsLogger.InputRejected(input, err)
		return
	}

	output, err = s.engine.Evaluate(logger, input)
	if err != nil {
		s.resultsLogger.InputRejected(input, err)
		return
	}

	s.resultsLogger.EvaluationCompleted(input, output)
	return
}

func (s *serverImpl) validate(input EvalInput) error {
	if input.URL == "" {
		return ErrURLMissing
	}

	if s.limits.MaxURLLength > 0 && len(input.URL) > s.limits.MaxURLLength {
		return ErrURLTooLong
	}

	if !encoding.IsValidURLEncoding(input.URL) {
		return ErrURLBadEncoding
	}

	if input.Rules == "" {
		return ErrRulesMissing
	}

	return nil
}
