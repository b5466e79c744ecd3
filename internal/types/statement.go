package types

import (
	"fmt"
	"strings"
)

// Formatter supplies the dialect-specific pieces of a statement: identifier
// quoting and positional placeholders (1-based).
type Formatter interface {
	QuoteIdentifier(name string) string
	Placeholder(index int) string
}

type partKind uint8

const (
	partText partKind = iota
	partIdent
	partValue
	partNested
	partClause
)

type part struct {
	value  any
	nested *Statement
	text   string
	ident  []string
	kind   partKind
}

// Statement is an injection-safe SQL fragment. Text, identifiers and bound
// values are kept apart until Build, so placeholders are numbered once for the
// whole statement and identifiers are quoted by the target dialect.
//
// Statements are values: every combinator returns a new Statement and never
// modifies its operands.
type Statement struct {
	parts []part
}

// Raw creates a statement from literal SQL text. Never pass user input here.
func Raw(text string) Statement {
	if text == "" {
		return Statement{}
	}
	return Statement{parts: []part{{kind: partText, text: text}}}
}

// Ident creates a qualified identifier such as "a"."id".
func Ident(names ...string) Statement {
	segs := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			segs = append(segs, n)
		}
	}
	return Statement{parts: []part{{kind: partIdent, ident: segs}}}
}

// Value creates a bound parameter.
func Value(v any) Statement {
	return Statement{parts: []part{{kind: partValue, value: v}}}
}

// Clause starts a top-level clause (FROM, WHERE, LEFT JOIN, ...). It renders
// as " KEYWORD " in compact form and on its own line when pretty printed.
func Clause(keyword string) Statement {
	return Statement{parts: []part{{kind: partClause, text: keyword}}}
}

// Nest embeds s as a nested statement, indented one level when pretty printed.
func Nest(s Statement) Statement {
	inner := s
	return Statement{parts: []part{{kind: partNested, nested: &inner}}}
}

// Concat joins statements without a separator.
func Concat(stmts ...Statement) Statement {
	var n int
	for _, s := range stmts {
		n += len(s.parts)
	}
	out := make([]part, 0, n)
	for _, s := range stmts {
		out = append(out, s.parts...)
	}
	return Statement{parts: out}
}

// JoinStatements joins the non-empty statements with sep.
func JoinStatements(sep string, stmts []Statement) Statement {
	var out Statement
	first := true
	for _, s := range stmts {
		if s.IsEmpty() {
			continue
		}
		if !first {
			out = out.Append(Raw(sep))
		}
		out = out.Append(s)
		first = false
	}
	return out
}

// Append returns s followed by others.
func (s Statement) Append(others ...Statement) Statement {
	return Concat(append([]Statement{s}, others...)...)
}

// IsEmpty reports whether the statement renders to nothing.
func (s Statement) IsEmpty() bool {
	return len(s.parts) == 0
}

// Values returns the bound values in placeholder order.
func (s Statement) Values() []any {
	var out []any
	s.walkValues(&out)
	return out
}

func (s Statement) walkValues(out *[]any) {
	for _, p := range s.parts {
		switch p.kind {
		case partValue:
			*out = append(*out, p.value)
		case partNested:
			p.nested.walkValues(out)
		}
	}
}

// Build renders the statement to SQL text and its ordered parameter list.
func (s Statement) Build(f Formatter) (string, []any) {
	b := &stmtBuilder{f: f}
	b.write(s, 0)
	return b.sb.String(), b.args
}

// Pretty renders an indented form for diagnostics, followed by one comment
// line per bound value.
func (s Statement) Pretty(f Formatter) string {
	b := &stmtBuilder{f: f, pretty: true}
	b.write(s, 0)
	for i, v := range b.args {
		fmt.Fprintf(&b.sb, "\n-- %s = %v", f.Placeholder(i+1), v)
	}
	return b.sb.String()
}

type stmtBuilder struct {
	f      Formatter
	sb     strings.Builder
	args   []any
	pretty bool
}

func (b *stmtBuilder) write(s Statement, depth int) {
	for _, p := range s.parts {
		switch p.kind {
		case partText:
			b.sb.WriteString(p.text)
		case partIdent:
			for i, name := range p.ident {
				if i > 0 {
					b.sb.WriteByte('.')
				}
				b.sb.WriteString(b.f.QuoteIdentifier(name))
			}
		case partValue:
			b.args = append(b.args, p.value)
			b.sb.WriteString(b.f.Placeholder(len(b.args)))
		case partNested:
			b.write(*p.nested, depth+1)
		case partClause:
			if b.pretty {
				b.sb.WriteByte('\n')
				b.sb.WriteString(strings.Repeat("  ", depth))
			} else {
				b.sb.WriteByte(' ')
			}
			b.sb.WriteString(p.text)
			b.sb.WriteByte(' ')
		}
	}
}
