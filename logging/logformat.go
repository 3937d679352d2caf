package logging

import (
	"rewritelab/rewrite"
)

type evaluationLogEntry struct {
	OperationName string                       `json:"operationName"`
	Category      string                       `json:"category"`
	Properties    evaluationLogEntryProperties `json:"properties"`
}

type evaluationLogEntryProperties struct {
	URL          string                 `json:"url"`
	FinalURL     string                 `json:"finalUrl"`
	Status       string                 `json:"status"`
	StatusCode   *int                   `json:"statusCode"`
	MatchedLines int                    `json:"matchedLines"`
	InvalidLines int                    `json:"invalidLines"`
	Trace        []evaluationLogTraceRow `json:"trace"`
}

type evaluationLogTraceRow struct {
	LineNo  int    `json:"lineNo"`
	RawLine string `json:"rawLine"`
	Valid   bool   `json:"valid"`
	Reached bool   `json:"reached"`
	Met     bool   `json:"met"`
	Message string `json:"message,omitempty"`
}

type inputRejectedLogEntry struct {
	OperationName string                          `json:"operationName"`
	Category      string                          `json:"category"`
	Properties    inputRejectedLogEntryProperties `json:"properties"`
}

type inputRejectedLogEntryProperties struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

func newEvaluationLogEntry(input rewrite.EvalInput, output rewrite.EvalOutput) evaluationLogEntry {
	var matched, invalid int
	rows := make([]evaluationLogTraceRow, 0, len(output.Trace))
	for _, t := range output.Trace {
		if t.Met {
			matched++
		}
		if !t.Valid {
			invalid++
		}
		rows = append(rows, evaluationLogTraceRow{
			LineNo:  t.LineNo,
			RawLine: t.RawLine,
			Valid:   t.Valid,
			Reached: t.Reached,
			Met:     t.Met,
			Message: t.Message,
		})
	}

	return evaluationLogEntry{
		OperationName: "RewriteEvaluation",
		Category:      "RewriteEvaluationLog",
		Properties: evaluationLogEntryProperties{
			URL:          input.URL,
			FinalURL:     output.FinalURL,
			Status:       string(output.Status),
			StatusCode:   output.StatusCode,
			MatchedLines: matched,
			InvalidLines: invalid,
			Trace:        rows,
		},
	}
}

func newInputRejectedLogEntry(input rewrite.EvalInput, err error) inputRejectedLogEntry {
	return inputRejectedLogEntry{
		OperationName: "RewriteEvaluation",
		Category:      "RewriteInputRejectedLog",
		Properties: inputRejectedLogEntryProperties{
			URL:     input.URL,
			Message: err.Error(),
		},
	}
}
