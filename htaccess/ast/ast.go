// Package ast holds the directive node types produced by the htaccess parser.
package ast

// Node is one parsed source line. Concrete types are Blank, Comment,
// EngineToggle, Base, Cond, Rule, Unknown and ParseError; all of them embed
// Span. Walk a Document with a type switch.
type Node interface {
	Pos() Span
}

// Span ties a node to its source line. LineNo is 1-based; Raw is the exact
// original line text including leading whitespace.
type Span struct {
	LineNo int
	Raw    string
}

// Pos makes every type embedding Span a Node.
func (s Span) Pos() Span {
	return s
}

// Blank is a line that is empty after trimming whitespace.
type Blank struct {
	Span
}

// Comment is a line whose first non-whitespace character is '#'.
type Comment struct {
	Span
	Text string
}

// EngineToggle is a RewriteEngine On|Off directive.
type EngineToggle struct {
	Span
	On bool
}

// Base is a RewriteBase directive carrying the active path prefix.
type Base struct {
	Span
	Base string
}

// Cond is a RewriteCond directive. A contiguous run of Cond nodes immediately
// preceding a Rule binds to that rule.
type Cond struct {
	Span
	TestString  string
	CondPattern string
	Nocase      bool
	Ornext      bool
	Negated     bool
}

// Rule is a RewriteRule directive.
type Rule struct {
	Span
	Pattern      string
	Substitution string
	Flags        RuleFlags
}

// Unknown is a directive the engine does not implement. It is not an error;
// it produces an informational trace entry.
type Unknown struct {
	Span
	DirectiveName string
	Args          string
}

// ParseError is a line that looked like a directive but could not be parsed.
type ParseError struct {
	Span
	Message string
}

// RuleFlags are the bracketed flags of a RewriteRule. Redirect and Skip are
// nil when the flag was absent.
type RuleFlags struct {
	Last        bool
	Nocase      bool
	Qsappend    bool
	Qsdiscard   bool
	Noescape    bool
	Next        bool
	End         bool
	Forbidden   bool
	Gone        bool
	Chain       bool
	Passthrough bool
	Proxy       bool
	Redirect    *int
	Skip        *int
	Type        string
	Env         []string
	Cookie      []string
}

// Document is the ordered node sequence for one rules text, one node per
// source line.
type Document []Node
