package ruleparsing

import (
	ht "rewritelab/htaccess"
	"rewritelab/htaccess/ast"

	"strconv"
	"strings"
)

type condFlagSetter func(c *ast.Cond)

var condFlagsMap = map[string]condFlagSetter{
	"NC":     func(c *ast.Cond) { c.Nocase = true },
	"NOCASE": func(c *ast.Cond) { c.Nocase = true },
	"OR":     func(c *ast.Cond) { c.Ornext = true },
	"ORNEXT": func(c *ast.Cond) { c.Ornext = true },
}

type ruleFlagSetter func(f *ast.RuleFlags, value string, hasValue bool)

var ruleFlagsMap = map[string]ruleFlagSetter{
	"L":           func(f *ast.RuleFlags, _ string, _ bool) { f.Last = true },
	"LAST":        func(f *ast.RuleFlags, _ string, _ bool) { f.Last = true },
	"R":           setRedirect,
	"REDIRECT":    setRedirect,
	"NC":          func(f *ast.RuleFlags, _ string, _ bool) { f.Nocase = true },
	"NOCASE":      func(f *ast.RuleFlags, _ string, _ bool) { f.Nocase = true },
	"QSA":         func(f *ast.RuleFlags, _ string, _ bool) { f.Qsappend = true },
	"QSAPPEND":    func(f *ast.RuleFlags, _ string, _ bool) { f.Qsappend = true },
	"QSD":         func(f *ast.RuleFlags, _ string, _ bool) { f.Qsdiscard = true },
	"QSDISCARD":   func(f *ast.RuleFlags, _ string, _ bool) { f.Qsdiscard = true },
	"NE":          func(f *ast.RuleFlags, _ string, _ bool) { f.Noescape = true },
	"NOESCAPE":    func(f *ast.RuleFlags, _ string, _ bool) { f.Noescape = true },
	"N":           func(f *ast.RuleFlags, _ string, _ bool) { f.Next = true },
	"NEXT":        func(f *ast.RuleFlags, _ string, _ bool) { f.Next = true },
	"END":         func(f *ast.RuleFlags, _ string, _ bool) { f.End = true },
	"F":           func(f *ast.RuleFlags, _ string, _ bool) { f.Forbidden = true },
	"FORBIDDEN":   func(f *ast.RuleFlags, _ string, _ bool) { f.Forbidden = true },
	"G":           func(f *ast.RuleFlags, _ string, _ bool) { f.Gone = true },
	"GONE":        func(f *ast.RuleFlags, _ string, _ bool) { f.Gone = true },
	"C":           func(f *ast.RuleFlags, _ string, _ bool) { f.Chain = true },
	"CHAIN":       func(f *ast.RuleFlags, _ string, _ bool) { f.Chain = true },
	"S":           setSkip,
	"SKIP":        setSkip,
	"PT":          func(f *ast.RuleFlags, _ string, _ bool) { f.Passthrough = true },
	"PASSTHROUGH": func(f *ast.RuleFlags, _ string, _ bool) { f.Passthrough = true },
	"P":           func(f *ast.RuleFlags, _ string, _ bool) { f.Proxy = true },
	"PROXY":       func(f *ast.RuleFlags, _ string, _ bool) { f.Proxy = true },
	"T":           func(f *ast.RuleFlags, value string, _ bool) { f.Type = value },
	"TYPE":        func(f *ast.RuleFlags, value string, _ bool) { f.Type = value },
	"E":           func(f *ast.RuleFlags, value string, _ bool) { f.Env = append(f.Env, value) },
	"ENV":         func(f *ast.RuleFlags, value string, _ bool) { f.Env = append(f.Env, value) },
	"CO":          func(f *ast.RuleFlags, value string, _ bool) { f.Cookie = append(f.Cookie, value) },
	"COOKIE":      func(f *ast.RuleFlags, value string, _ bool) { f.Cookie = append(f.Cookie, value) },
}

func setRedirect(f *ast.RuleFlags, value string, hasValue bool) {
	status := 302
	if hasValue {
		if n, err := strconv.Atoi(value); err == nil {
			status = n
		}
	}
	f.Redirect = &status
}

func setSkip(f *ast.RuleFlags, value string, hasValue bool) {
	count := 1
	if hasValue {
		if n, err := strconv.Atoi(value); err == nil {
			count = n
		}
	}
	f.Skip = &count
}

type ruleParserImpl struct {
}

// NewRuleParser creates an htaccess.RuleParser.
func NewRuleParser() ht.RuleParser {
	return &ruleParserImpl{}
}

// Parse splits the input into lines and yields exactly one node per line.
// It never fails; lines that cannot be understood become ParseError nodes.
func (p *ruleParserImpl) Parse(input string) (doc ast.Document) {
	doc = ast.Document{}
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		doc = append(doc, parseLine(i+1, line))
	}
	return
}

func parseLine(lineNo int, raw string) ast.Node {
	span := ast.Span{LineNo: lineNo, Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &ast.Blank{Span: span}
	}

	if trimmed[0] == '#' {
		return &ast.Comment{Span: span, Text: strings.TrimSpace(trimmed[1:])}
	}

	name := trimmed
	rest := ""
	if i := strings.IndexAny(trimmed, " \t"); i != -1 {
		name = trimmed[:i]
		rest = strings.TrimSpace(trimmed[i+1:])
	}

	switch strings.ToLower(name) {
	case "rewriteengine":
		return parseEngineToggle(span, rest)
	case "rewritebase":
		return parseBase(span, rest)
	case "rewritecond":
		return parseCond(span, rest)
	case "rewriterule":
		return parseRule(span, rest)
	default:
		return &ast.Unknown{Span: span, DirectiveName: name, Args: rest}
	}
}

func parseEngineToggle(span ast.Span, args string) ast.Node {
	switch {
	case strings.EqualFold(args, "on"):
		return &ast.EngineToggle{Span: span, On: true}
	case strings.EqualFold(args, "off"):
		return &ast.EngineToggle{Span: span, On: false}
	default:
		return &ast.ParseError{Span: span, Message: "RewriteEngine requires exactly one argument: On or Off"}
	}
}

func parseBase(span ast.Span, args string) ast.Node {
	tokens := splitArgs(args)
	if len(tokens) == 0 || tokens[0] == "" {
		return &ast.ParseError{Span: span, Message: "RewriteBase requires a path argument"}
	}
	return &ast.Base{Span: span, Base: tokens[0]}
}

func parseCond(span ast.Span, args string) ast.Node {
	tokens := splitArgs(args)
	if len(tokens) < 2 {
		return &ast.ParseError{Span: span, Message: "RewriteCond requires a test string and a pattern"}
	}

	cond := &ast.Cond{Span: span, TestString: tokens[0], CondPattern: tokens[1]}

	if strings.HasPrefix(cond.CondPattern, "!") {
		cond.Negated = true
		cond.CondPattern = cond.CondPattern[1:]
	}

	if len(tokens) >= 3 {
		for _, flag := range splitFlags(tokens[2]) {
			if setter, ok := condFlagsMap[strings.ToUpper(flag)]; ok {
				setter(cond)
			}
		}
	}

	return cond
}

func parseRule(span ast.Span, args string) ast.Node {
	tokens := splitArgs(args)
	if len(tokens) < 2 {
		return &ast.ParseError{Span: span, Message: "RewriteRule requires a pattern and a substitution"}
	}

	rule := &ast.Rule{Span: span, Pattern: tokens[0], Substitution: tokens[1]}

	if len(tokens) >= 3 {
		for _, flag := range splitFlags(tokens[2]) {
			key, value, hasValue := strings.Cut(flag, "=")
			if setter, ok := ruleFlagsMap[strings.ToUpper(key)]; ok {
				setter(&rule.Flags, value, hasValue)
			}
		}
	}

	return rule
}

// splitFlags strips the optional surrounding brackets from a flag list and
// splits it on commas. Unknown flags are dealt with by the callers, which
// look tokens up in a table and skip the ones they do not find.
func splitFlags(s string) []string {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.Split(s, ",")
}

// splitArgs splits a directive argument string on unquoted whitespace.
// Matched single- and double-quote pairs are consumed but keep their enclosed
// whitespace as part of a single token. Backslash escapes inside quotes are
// left as literal characters.
func splitArgs(s string) (tokens []string) {
	var b strings.Builder
	inToken := false
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				b.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inToken = true
		case c == ' ' || c == '\t':
			if inToken {
				tokens = append(tokens, b.String())
				b.Reset()
				inToken = false
			}
		default:
			b.WriteByte(c)
			inToken = true
		}
	}

	if inToken {
		tokens = append(tokens, b.String())
	}

	return
}
