package rewrite

// ResultsLogger is implemented by hosts that want one structured record per
// completed evaluation.
type ResultsLogger interface {
	EvaluationCompleted(input EvalInput, output EvalOutput)
	InputRejected(input EvalInput, err error)
}
