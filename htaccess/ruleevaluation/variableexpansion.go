package ruleevaluation

import "regexp"

var serverVarRegex = regexp.MustCompile(`%\{([A-Za-z_][A-Za-z0-9_]*)\}`)
var ruleBackrefRegex = regexp.MustCompile(`\$([1-9])`)
var fullRuleBackrefRegex = regexp.MustCompile(`\$([0-9])`)
var condBackrefRegex = regexp.MustCompile(`%([1-9])`)

// expandVariables resolves %{NAME}, then $N, then %N, each applied exactly
// once over the string. Unrecognized names resolve to the empty string.
func (s *evaluationState) expandVariables(text string) string {
	text = serverVarRegex.ReplaceAllStringFunc(text, func(ref string) string {
		return s.env[ref[2:len(ref)-1]]
	})

	text = ruleBackrefRegex.ReplaceAllStringFunc(text, func(ref string) string {
		return s.ruleCaptures[ref[1]-'0']
	})

	text = condBackrefRegex.ReplaceAllStringFunc(text, func(ref string) string {
		return s.condCaptures[ref[1]-'0']
	})

	return text
}

// expandSubstitution is expandVariables with the additional $0..$9 pass over
// the current rule match's capture array. ruleCaptures already holds that
// array when this runs, so the ordinary $N pass is widened to include $0.
func (s *evaluationState) expandSubstitution(text string) string {
	text = serverVarRegex.ReplaceAllStringFunc(text, func(ref string) string {
		return s.env[ref[2:len(ref)-1]]
	})

	text = fullRuleBackrefRegex.ReplaceAllStringFunc(text, func(ref string) string {
		return s.ruleCaptures[ref[1]-'0']
	})

	text = condBackrefRegex.ReplaceAllStringFunc(text, func(ref string) string {
		return s.condCaptures[ref[1]-'0']
	})

	return text
}
