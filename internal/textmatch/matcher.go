// Package textmatch compiles configurable text matchers used by handler
// restrictions, filters, taggers and transformers.
package textmatch

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// Method selects how a pattern is interpreted.
type Method string

const (
	// MethodBasic matches the pattern literally.
	MethodBasic Method = "basic"

	// MethodWildcard treats * as any run of characters and ? as one character.
	MethodWildcard Method = "wildcard"

	// MethodRegex treats the pattern as a regular expression.
	MethodRegex Method = "regex"

	// MethodCSV treats the pattern as comma-separated literal alternatives.
	MethodCSV Method = "csv"
)

// Matcher is the configuration of a text matcher.
// The zero value matches everything.
type Matcher struct {
	Pattern         string `koanf:"pattern" toml:"pattern" yaml:"pattern" mapstructure:"pattern"`
	Method          Method `koanf:"method" toml:"method,omitempty" yaml:"method,omitempty" mapstructure:"method"`
	IgnoreCase      bool   `koanf:"ignore_case" toml:"ignore_case,omitempty" yaml:"ignore_case,omitempty" mapstructure:"ignore_case"`
	IgnoreDiacritic bool   `koanf:"ignore_diacritic" toml:"ignore_diacritic,omitempty" yaml:"ignore_diacritic,omitempty" mapstructure:"ignore_diacritic"`
	Partial         bool   `koanf:"partial" toml:"partial,omitempty" yaml:"partial,omitempty" mapstructure:"partial"`
}

// Basic returns a literal matcher.
func Basic(pattern string) Matcher { return Matcher{Pattern: pattern, Method: MethodBasic} }

// Wildcard returns a wildcard matcher.
func Wildcard(pattern string) Matcher { return Matcher{Pattern: pattern, Method: MethodWildcard} }

// Regex returns a regular expression matcher.
func Regex(pattern string) Matcher { return Matcher{Pattern: pattern, Method: MethodRegex} }

// CSV returns a matcher over comma-separated alternatives.
func CSV(pattern string) Matcher { return Matcher{Pattern: pattern, Method: MethodCSV} }

// WithIgnoreCase returns a copy matching case-insensitively.
func (m Matcher) WithIgnoreCase() Matcher {
	m.IgnoreCase = true
	return m
}

// WithIgnoreDiacritic returns a copy ignoring accents and other marks.
func (m Matcher) WithIgnoreDiacritic() Matcher {
	m.IgnoreDiacritic = true
	return m
}

// WithPartial returns a copy that matches anywhere in the text.
func (m Matcher) WithPartial() Matcher {
	m.Partial = true
	return m
}

// IsZero reports whether the matcher has no pattern.
func (m Matcher) IsZero() bool {
	return m.Pattern == ""
}

// String returns a compact description for logs.
func (m Matcher) String() string {
	method := m.Method
	if method == "" {
		method = MethodBasic
	}
	return fmt.Sprintf("%s(%q)", method, m.Pattern)
}

// Compiled is a ready-to-use matcher. It is immutable and safe for
// concurrent use.
type Compiled struct {
	matcher Matcher
	re      *regexp.Regexp
	full    *regexp.Regexp
	after   *regexp.Regexp
}

// Compile validates the matcher and prepares it for matching.
func (m Matcher) Compile() (*Compiled, error) {
	if m.Method == "" {
		m.Method = MethodBasic
	}
	if m.IsZero() {
		return &Compiled{matcher: m}, nil
	}

	expr, err := m.expression()
	if err != nil {
		return nil, err
	}
	// wildcards span lines; regular expressions keep their own flags
	flags := "(?s)"
	if m.Method == MethodRegex {
		flags = ""
	}
	if m.IgnoreCase {
		flags = "(?i)" + flags
	}

	re, err := regexp.Compile(flags + expr)
	if err != nil {
		return nil, &domain.ConfigurationError{Param: "pattern", Err: err}
	}
	full := regexp.MustCompile(flags + `\A(?:` + expr + `)\z`)
	// one leading rune of context, then the pattern as group 1
	after := regexp.MustCompile(flags + `(?s:.)(` + expr + `)`)
	return &Compiled{matcher: m, re: re, full: full, after: after}, nil
}

// MustCompile is like Compile but panics on error.
func (m Matcher) MustCompile() *Compiled {
	c, err := m.Compile()
	if err != nil {
		panic(err)
	}
	return c
}

func (m Matcher) expression() (string, error) {
	pattern := m.Pattern
	if m.IgnoreDiacritic && m.Method != MethodRegex {
		pattern = Fold(pattern)
	}

	switch m.Method {
	case MethodBasic:
		return regexp.QuoteMeta(pattern), nil
	case MethodWildcard:
		return wildcardExpr(pattern), nil
	case MethodRegex:
		return pattern, nil
	case MethodCSV:
		var alts []string
		for _, v := range strings.Split(pattern, ",") {
			if v = strings.TrimSpace(v); v != "" {
				alts = append(alts, regexp.QuoteMeta(v))
			}
		}
		if len(alts) == 0 {
			return "", &domain.ConfigurationError{Param: "pattern", Err: fmt.Errorf("no values in %q", m.Pattern)}
		}
		return strings.Join(alts, "|"), nil
	}
	return "", &domain.ConfigurationError{Param: "method", Err: fmt.Errorf("unknown method %q", m.Method)}
}

func wildcardExpr(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Matcher returns the configuration the matcher was compiled from.
func (c *Compiled) Matcher() Matcher {
	return c.matcher
}

// Matches reports whether text matches. Unless the matcher is partial,
// the whole text must match.
func (c *Compiled) Matches(text string) bool {
	if c.re == nil {
		return true
	}
	if c.matcher.IgnoreDiacritic {
		text = Fold(text)
	}
	if c.matcher.Partial {
		return c.re.MatchString(text)
	}
	return c.full.MatchString(text)
}

// MatchesAny reports whether at least one of values matches.
func (c *Compiled) MatchesAny(values []string) bool {
	for _, v := range values {
		if c.Matches(v) {
			return true
		}
	}
	return false
}

// FindIndex returns the byte offsets of the leftmost match starting at or
// after offset from, or nil. Offsets refer to text. The character before
// from is visible to the pattern, so \b and ^ behave as on the whole text.
func (c *Compiled) FindIndex(text string, from int) []int {
	if c.re == nil || from > len(text) {
		return nil
	}
	if !c.matcher.IgnoreDiacritic {
		return c.findFrom(text, from)
	}

	folded, offsets := foldWithOffsets(text)
	start := len(folded)
	for i, off := range offsets {
		if off >= from {
			start = i
			break
		}
	}
	loc := c.findFrom(folded, start)
	if loc == nil {
		return nil
	}
	return []int{offsets[loc[0]], offsets[loc[1]]}
}

// findFrom returns the leftmost match in text starting at or after from.
// Matches beginning before from never hide a later one.
func (c *Compiled) findFrom(text string, from int) []int {
	if from == 0 {
		return c.re.FindStringIndex(text)
	}
	_, size := utf8.DecodeLastRuneInString(text[:from])
	ctx := from - size

	sub := c.after.FindStringSubmatchIndex(text[ctx:])
	if sub == nil {
		return nil
	}
	return []int{sub[2] + ctx, sub[3] + ctx}
}

// FindAllIndex returns the byte offsets of all successive matches.
func (c *Compiled) FindAllIndex(text string) [][]int {
	if c.re == nil {
		return nil
	}
	return c.findAll(text, -1)
}

func (c *Compiled) findAll(text string, n int) [][]int {
	if !c.matcher.IgnoreDiacritic {
		return c.re.FindAllStringIndex(text, n)
	}

	folded, offsets := foldWithOffsets(text)
	locs := c.re.FindAllStringIndex(folded, n)
	for _, loc := range locs {
		loc[0], loc[1] = offsets[loc[0]], offsets[loc[1]]
	}
	return locs
}

// ReplaceAll replaces every match in text. For regex matchers the
// replacement may reference groups with $1 or ${name}; for other methods it
// is inserted literally.
func (c *Compiled) ReplaceAll(text, replacement string) string {
	if c.re == nil {
		return text
	}
	if !c.matcher.IgnoreDiacritic {
		if c.matcher.Method == MethodRegex {
			return c.re.ReplaceAllString(text, replacement)
		}
		return c.re.ReplaceAllLiteralString(text, replacement)
	}

	var b strings.Builder
	last := 0
	for _, loc := range c.FindAllIndex(text) {
		b.WriteString(text[last:loc[0]])
		if c.matcher.Method == MethodRegex {
			b.WriteString(c.expandAt(text, loc, replacement))
		} else {
			b.WriteString(replacement)
		}
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func (c *Compiled) expandAt(text string, loc []int, template string) string {
	folded := Fold(text[loc[0]:loc[1]])
	sub := c.re.FindStringSubmatchIndex(folded)
	if sub == nil {
		return template
	}
	return string(c.re.ExpandString(nil, template, folded, sub))
}
