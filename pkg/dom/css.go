package dom

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is one `name: value` pair of a style attribute or rule body.
type Declaration struct {
	Name, Value string
}

// Rule is a qualified rule of a stylesheet. Rules nested in at-rule blocks
// such as @media are returned flattened.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

type token struct {
	tt   css.TokenType
	data string
}

// lex tokenizes s, dropping comments. Strings and url() stay single tokens,
// so separators inside them are never mistaken for structure.
func lex(s string) []token {
	l := css.NewLexer(parse.NewInputString(s))
	var out []token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return out
		case css.CommentToken:
			continue
		}
		out = append(out, token{tt: tt, data: string(data)})
	}
}

func text(toks []token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.data)
	}
	return strings.TrimSpace(b.String())
}

func opens(tt css.TokenType) bool {
	return tt == css.FunctionToken || tt == css.LeftParenthesisToken ||
		tt == css.LeftBracketToken || tt == css.LeftBraceToken
}

func closes(tt css.TokenType) bool {
	return tt == css.RightParenthesisToken || tt == css.RightBracketToken || tt == css.RightBraceToken
}

// split cuts toks at every top-level separator of type sep.
func split(toks []token, sep css.TokenType) [][]token {
	var (
		out   [][]token
		depth int
		start int
	)
	for i, t := range toks {
		switch {
		case opens(t.tt):
			depth++
		case closes(t.tt):
			depth = max(depth-1, 0)
		case t.tt == sep && depth == 0:
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	return append(out, toks[start:])
}

// ParseDeclarations parses the body of a style attribute or rule.
// Declarations without a colon or a name are dropped.
func ParseDeclarations(s string) []Declaration {
	return declarations(lex(s))
}

func declarations(toks []token) []Declaration {
	var out []Declaration
	for _, part := range split(toks, css.SemicolonToken) {
		for i, t := range part {
			if t.tt != css.ColonToken {
				continue
			}
			if name := text(part[:i]); name != "" {
				out = append(out, Declaration{Name: name, Value: text(part[i+1:])})
			}
			break
		}
	}
	return out
}

// FormatDeclarations renders decls as a style attribute value.
func FormatDeclarations(decls []Declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.Name + ": " + d.Value
	}
	return strings.Join(parts, "; ")
}

// ParseRules parses a stylesheet into its qualified rules. Statement
// at-rules like @import are skipped.
func ParseRules(sheet string) []Rule {
	return rules(lex(sheet))
}

func rules(toks []token) []Rule {
	var out []Rule
	for i := 0; i < len(toks); {
		j := i
		for j < len(toks) && toks[j].tt != css.LeftBraceToken && toks[j].tt != css.SemicolonToken {
			j++
		}
		if j == len(toks) {
			break
		}
		if toks[j].tt == css.SemicolonToken {
			i = j + 1
			continue
		}

		end, depth := j, 0
		for ; end < len(toks); end++ {
			if toks[end].tt == css.LeftBraceToken {
				depth++
			} else if toks[end].tt == css.RightBraceToken {
				if depth--; depth == 0 {
					break
				}
			}
		}
		body := toks[j+1 : min(end, len(toks))]

		prelude := toks[i:j]
		if atRule(prelude) {
			out = append(out, rules(body)...)
		} else {
			var sels []string
			for _, s := range split(prelude, css.CommaToken) {
				if sel := text(s); sel != "" {
					sels = append(sels, sel)
				}
			}
			out = append(out, Rule{Selectors: sels, Declarations: declarations(body)})
		}
		i = end + 1
	}
	return out
}

func atRule(prelude []token) bool {
	for _, t := range prelude {
		if t.tt != css.WhitespaceToken {
			return t.tt == css.AtKeywordToken
		}
	}
	return false
}
