package logging

import (
	"encoding/json"

	"rewritelab/rewrite"

	"github.com/rs/zerolog"
)

// NewZerologResultsLogger creates a results logger that builds the same
// records the file logger writes, but just outputs them to Zerolog.
func NewZerologResultsLogger(logger zerolog.Logger) rewrite.ResultsLogger {
	return &zerologResultsLogger{logger: logger}
}

type zerologResultsLogger struct {
	logger zerolog.Logger
}

func (l *zerologResultsLogger) EvaluationCompleted(input rewrite.EvalInput, output rewrite.EvalOutput) {
	c := newEvaluationLogEntry(input, output)

	bb, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		l.logger.Error().Err(err).Msg("Error while marshaling JSON results log")
		return
	}

	l.logger.Info().Msgf("Evaluation log:\n%s\n", bb)
}

func (l *zerologResultsLogger) InputRejected(input rewrite.EvalInput, err error) {
	c := newInputRejectedLogEntry(input, err)

	bb, merr := json.MarshalIndent(c, "", "  ")
	if merr != nil {
		l.logger.Error().Err(merr).Msg("Error while marshaling JSON results log")
		return
	}

	l.logger.Info().Msgf("Evaluation log:\n%s\n", bb)
}
