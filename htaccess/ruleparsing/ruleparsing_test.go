package ruleparsing

import (
	"rewritelab/htaccess/ast"

	"testing"
)

func TestParseRuleWithFlags(t *testing.T) {
	// Arrange
	p := NewRuleParser()
	rules := "RewriteEngine On\nRewriteRule ^old-page$ /new-page [R=301,L]"

	// Act
	doc := p.Parse(rules)

	// Assert
	if len(doc) != 2 {
		t.Fatalf("Wrong node count: %d", len(doc))
	}

	e, ok := doc[0].(*ast.EngineToggle)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[0])
	}
	if !e.On {
		t.Fatalf("Engine toggle should be on")
	}

	r, ok := doc[1].(*ast.Rule)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[1])
	}
	if r.Pattern != "^old-page$" {
		t.Fatalf("Wrong pattern: %s", r.Pattern)
	}
	if r.Substitution != "/new-page" {
		t.Fatalf("Wrong substitution: %s", r.Substitution)
	}
	if r.Flags.Redirect == nil || *r.Flags.Redirect != 301 {
		t.Fatalf("Wrong redirect flag: %v", r.Flags.Redirect)
	}
	if !r.Flags.Last {
		t.Fatalf("Last flag should be set")
	}
}

func TestParseBlankAndComment(t *testing.T) {
	// Arrange
	p := NewRuleParser()
	rules := "\n  \n# a comment\n\t#another"

	// Act
	doc := p.Parse(rules)

	// Assert
	if len(doc) != 4 {
		t.Fatalf("Wrong node count: %d", len(doc))
	}
	if _, ok := doc[0].(*ast.Blank); !ok {
		t.Fatalf("Wrong node type: %T", doc[0])
	}
	if _, ok := doc[1].(*ast.Blank); !ok {
		t.Fatalf("Wrong node type: %T", doc[1])
	}
	c, ok := doc[2].(*ast.Comment)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[2])
	}
	if c.Text != "a comment" {
		t.Fatalf("Wrong comment text: %q", c.Text)
	}
	c, ok = doc[3].(*ast.Comment)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[3])
	}
	if c.Text != "another" {
		t.Fatalf("Wrong comment text: %q", c.Text)
	}
}

func TestParsePreservesLineNumbersAndRawText(t *testing.T) {
	// Arrange
	p := NewRuleParser()
	rules := "RewriteEngine On\r\n  RewriteRule ^a$ /b\r\n"

	// Act
	doc := p.Parse(rules)

	// Assert
	if len(doc) != 3 {
		t.Fatalf("Wrong node count: %d", len(doc))
	}
	e := doc[0].(*ast.EngineToggle)
	if e.LineNo != 1 {
		t.Fatalf("Wrong line number: %d", e.LineNo)
	}
	r := doc[1].(*ast.Rule)
	if r.LineNo != 2 {
		t.Fatalf("Wrong line number: %d", r.LineNo)
	}
	if r.Raw != "  RewriteRule ^a$ /b" {
		t.Fatalf("Raw text not preserved: %q", r.Raw)
	}
	if _, ok := doc[2].(*ast.Blank); !ok {
		t.Fatalf("Wrong node type: %T", doc[2])
	}
}

func TestParseCondNegationAndFlags(t *testing.T) {
	// Arrange
	p := NewRuleParser()
	rules := `RewriteCond %{HTTP_HOST} !^www\. [NC,OR]`

	// Act
	doc := p.Parse(rules)

	// Assert
	c, ok := doc[0].(*ast.Cond)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[0])
	}
	if c.TestString != "%{HTTP_HOST}" {
		t.Fatalf("Wrong test string: %s", c.TestString)
	}
	if c.CondPattern != `^www\.` {
		t.Fatalf("Negation marker should be stripped from the pattern: %s", c.CondPattern)
	}
	if !c.Negated {
		t.Fatalf("Negated should be set")
	}
	if !c.Nocase {
		t.Fatalf("Nocase should be set")
	}
	if !c.Ornext {
		t.Fatalf("Ornext should be set")
	}
}

func TestParseCondUnknownFlagIgnored(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse(`RewriteCond %{HTTP_HOST} ^x$ [NV,NC]`)

	// Assert
	c := doc[0].(*ast.Cond)
	if !c.Nocase {
		t.Fatalf("Nocase should be set despite the unknown flag")
	}
	if c.Ornext || c.Negated {
		t.Fatalf("No other flags should be set")
	}
}

func TestParseQuotedArguments(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse(`RewriteRule "^with space$" "/target path" [L]`)

	// Assert
	r, ok := doc[0].(*ast.Rule)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[0])
	}
	if r.Pattern != "^with space$" {
		t.Fatalf("Wrong pattern: %q", r.Pattern)
	}
	if r.Substitution != "/target path" {
		t.Fatalf("Wrong substitution: %q", r.Substitution)
	}
	if !r.Flags.Last {
		t.Fatalf("Last flag should be set")
	}
}

func TestParseSingleQuotedArgumentKeepsEscapes(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse(`RewriteRule '^a\ b$' /x`)

	// Assert
	r := doc[0].(*ast.Rule)
	if r.Pattern != `^a\ b$` {
		t.Fatalf("Backslash inside quotes should stay literal: %q", r.Pattern)
	}
}

func TestParseErrorNodes(t *testing.T) {
	// Arrange
	p := NewRuleParser()
	rules := "RewriteEngine maybe\nRewriteBase\nRewriteCond onlyone\nRewriteRule onlypattern"

	// Act
	doc := p.Parse(rules)

	// Assert
	if len(doc) != 4 {
		t.Fatalf("Wrong node count: %d", len(doc))
	}
	for i, n := range doc {
		if _, ok := n.(*ast.ParseError); !ok {
			t.Fatalf("Node %d should be a ParseError, got %T", i, n)
		}
	}
}

func TestParseUnknownDirective(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse("Redirect 301 /old /new")

	// Assert
	u, ok := doc[0].(*ast.Unknown)
	if !ok {
		t.Fatalf("Wrong node type: %T", doc[0])
	}
	if u.DirectiveName != "Redirect" {
		t.Fatalf("Wrong directive name: %s", u.DirectiveName)
	}
	if u.Args != "301 /old /new" {
		t.Fatalf("Args should be preserved: %q", u.Args)
	}
}

func TestParseDirectiveNameCaseInsensitive(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse("rewriteengine ON\nREWRITERULE ^a$ /b")

	// Assert
	if _, ok := doc[0].(*ast.EngineToggle); !ok {
		t.Fatalf("Wrong node type: %T", doc[0])
	}
	if _, ok := doc[1].(*ast.Rule); !ok {
		t.Fatalf("Wrong node type: %T", doc[1])
	}
}

func TestParseRuleFlagDefaults(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse("RewriteRule ^a$ /b [R]\nRewriteRule ^c$ /d [R=notanumber]\nRewriteRule ^e$ /f [S]\nRewriteRule ^g$ /h [S=5]")

	// Assert
	r := doc[0].(*ast.Rule)
	if r.Flags.Redirect == nil || *r.Flags.Redirect != 302 {
		t.Fatalf("Bare R should default to 302: %v", r.Flags.Redirect)
	}
	r = doc[1].(*ast.Rule)
	if r.Flags.Redirect == nil || *r.Flags.Redirect != 302 {
		t.Fatalf("Non-numeric R value should fall back to 302: %v", r.Flags.Redirect)
	}
	r = doc[2].(*ast.Rule)
	if r.Flags.Skip == nil || *r.Flags.Skip != 1 {
		t.Fatalf("Bare S should default to 1: %v", r.Flags.Skip)
	}
	r = doc[3].(*ast.Rule)
	if r.Flags.Skip == nil || *r.Flags.Skip != 5 {
		t.Fatalf("Wrong skip count: %v", r.Flags.Skip)
	}
}

func TestParseRuleEnvAndCookieAccumulate(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse("RewriteRule ^a$ /b [E=VAR:1,E=OTHER:2,CO=name:value:domain,T=text/html]")

	// Assert
	r := doc[0].(*ast.Rule)
	if len(r.Flags.Env) != 2 || r.Flags.Env[0] != "VAR:1" || r.Flags.Env[1] != "OTHER:2" {
		t.Fatalf("Wrong env specs: %v", r.Flags.Env)
	}
	if len(r.Flags.Cookie) != 1 || r.Flags.Cookie[0] != "name:value:domain" {
		t.Fatalf("Wrong cookie specs: %v", r.Flags.Cookie)
	}
	if r.Flags.Type != "text/html" {
		t.Fatalf("Wrong type: %s", r.Flags.Type)
	}
}

func TestParseEveryRuleFlagToken(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse("RewriteRule ^a$ /b [L,NC,QSA,QSD,NE,N,END,F,G,C,PT,P]")

	// Assert
	f := doc[0].(*ast.Rule).Flags
	if !f.Last || !f.Nocase || !f.Qsappend || !f.Qsdiscard || !f.Noescape || !f.Next ||
		!f.End || !f.Forbidden || !f.Gone || !f.Chain || !f.Passthrough || !f.Proxy {
		t.Fatalf("Not all flags were recognized: %+v", f)
	}
}

func TestParseLongFlagNames(t *testing.T) {
	// Arrange
	p := NewRuleParser()

	// Act
	doc := p.Parse("RewriteRule ^a$ /b [LAST,NOCASE,QSAPPEND,QSDISCARD,NOESCAPE,NEXT,FORBIDDEN,GONE,CHAIN,PASSTHROUGH,PROXY,REDIRECT=307,SKIP=2]")

	// Assert
	f := doc[0].(*ast.Rule).Flags
	if !f.Last || !f.Nocase || !f.Qsappend || !f.Qsdiscard || !f.Noescape || !f.Next ||
		!f.Forbidden || !f.Gone || !f.Chain || !f.Passthrough || !f.Proxy {
		t.Fatalf("Not all long flag names were recognized: %+v", f)
	}
	if f.Redirect == nil || *f.Redirect != 307 {
		t.Fatalf("Wrong redirect: %v", f.Redirect)
	}
	if f.Skip == nil || *f.Skip != 2 {
		t.Fatalf("Wrong skip: %v", f.Skip)
	}
}

func TestParseIsTotal(t *testing.T) {
	// Arrange
	p := NewRuleParser()
	inputs := []string{
		"",
		"\n",
		"RewriteRule",
		"RewriteCond",
		"RewriteBase   ",
		`RewriteRule "unterminated /x`,
		"\x00\x01\x02",
		"RewriteEngine",
	}

	for _, input := range inputs {
		// Act
		doc := p.Parse(input)

		// Assert
		if len(doc) == 0 {
			t.Fatalf("Parse returned an empty document for %q", input)
		}
	}
}
