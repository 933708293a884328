package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlkit/dialect"
)

// part is a piece of accumulated SQL: either literal text or an argument slot.
// Placeholders are numbered when the builder is rendered, so builders can be
// merged without renumbering.
type part struct {
	text string
	arg  bool
}

// Builder is a low-level SQL string builder with identifier quoting and
// parameter binding. It is the building block of Query and of every Expr.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	dialect dialect.Dialect // nil renders positional "?" markers.
	parts   []part
	args    []any
	errs    []error
}

// NewBuilder returns a Builder that quotes identifiers and renders
// placeholders for the given dialect.
func NewBuilder(d dialect.Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect of the builder, or nil.
func (b *Builder) Dialect() dialect.Dialect {
	return b.dialect
}

// WriteString appends s to the builder as-is.
func (b *Builder) WriteString(s string) *Builder {
	if s == "" {
		return b
	}
	if n := len(b.parts); n > 0 && !b.parts[n-1].arg {
		b.parts[n-1].text += s
		return b
	}
	b.parts = append(b.parts, part{text: s})
	return b
}

// WriteByte implements the io.ByteWriter interface.
func (b *Builder) WriteByte(c byte) error {
	b.WriteString(string(c))
	return nil
}

// Comma appends ", ".
func (b *Builder) Comma() *Builder {
	return b.WriteString(", ")
}

// Pad appends a single space.
func (b *Builder) Pad() *Builder {
	return b.WriteString(" ")
}

// Ident appends a quoted identifier. Dotted names are quoted per part
// ("users.id" becomes "users"."id") and "*" is written bare.
func (b *Builder) Ident(name string) *Builder {
	if name == "*" {
		return b.WriteString(name)
	}
	if !strings.Contains(name, ".") {
		return b.WriteString(b.quote(name))
	}
	for i, p := range strings.Split(name, ".") {
		if i > 0 {
			b.WriteString(".")
		}
		if p == "*" {
			b.WriteString(p)
			continue
		}
		b.WriteString(b.quote(p))
	}
	return b
}

// IdentComma appends a comma-separated list of quoted identifiers.
func (b *Builder) IdentComma(names ...string) *Builder {
	for i, name := range names {
		if i > 0 {
			b.Comma()
		}
		b.Ident(name)
	}
	return b
}

// QualifiedIdent appends table.column, quoting both parts without splitting
// either of them on dots. An empty table writes the column alone.
func (b *Builder) QualifiedIdent(table, column string) *Builder {
	if table != "" {
		b.WriteString(b.quote(table)).WriteString(".")
	}
	if column == "*" {
		return b.WriteString(column)
	}
	return b.WriteString(b.quote(column))
}

func (b *Builder) quote(name string) string {
	if b.dialect == nil {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return b.dialect.QuoteIdentifier(name)
}

// Arg appends a placeholder and binds v to it.
func (b *Builder) Arg(v any) *Builder {
	b.parts = append(b.parts, part{arg: true})
	b.args = append(b.args, v)
	return b
}

// Args appends a comma-separated list of placeholders, one per value.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// Value appends v as an operand: expressions are rendered inline, column
// references are written as identifiers and anything else is bound.
func (b *Builder) Value(v any) *Builder {
	switch v := v.(type) {
	case Expr:
		v.Render(b)
	case ColumnRef:
		b.QualifiedIdent(v.TableName(), v.DBName())
	default:
		b.Arg(v)
	}
	return b
}

// Append appends a raw SQL fragment. Every "?" in the fragment becomes a
// placeholder bound to the next value of args, in order. Quoted literals are
// not parsed: a "?" inside a string literal is treated as a marker too.
func (b *Builder) Append(query string, args ...any) *Builder {
	segments := strings.Split(query, "?")
	if n := len(segments) - 1; n != len(args) {
		b.AddError(fmt.Errorf("%w: %q has %d markers, got %d args", ErrArgCount, query, n, len(args)))
	}
	for i, s := range segments {
		b.WriteString(s)
		if i < len(segments)-1 {
			var v any
			if i < len(args) {
				v = args[i]
			}
			b.Arg(v)
		}
	}
	return b
}

// When calls fn with the builder if cond is true.
func (b *Builder) When(cond bool, fn func(*Builder)) *Builder {
	if cond {
		fn(b)
	}
	return b
}

// Nested wraps the output of fn in parentheses.
func (b *Builder) Nested(fn func(*Builder)) *Builder {
	b.WriteString("(")
	fn(b)
	return b.WriteString(")")
}

// Join appends the text, arguments and errors of other, in order.
// Placeholders of other are renumbered to follow the ones of b.
func (b *Builder) Join(other *Builder) *Builder {
	if other == nil {
		return b
	}
	for _, p := range other.parts {
		if p.arg {
			b.parts = append(b.parts, p)
			continue
		}
		b.WriteString(p.text)
	}
	b.args = append(b.args, other.args...)
	b.errs = append(b.errs, other.errs...)
	return b
}

// JoinComma renders the expressions separated by commas.
func (b *Builder) JoinComma(exprs ...Expr) *Builder {
	for i, e := range exprs {
		if i > 0 {
			b.Comma()
		}
		e.Render(b)
	}
	return b
}

// AddError records a builder error, reported by Err.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the errors recorded while building, joined.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Len returns the number of bound arguments.
func (b *Builder) Len() int {
	return len(b.args)
}

// Query returns the SQL text with the dialect placeholders and its arguments.
func (b *Builder) Query() (string, []any) {
	d := b.dialect
	return b.render(func(i int) string {
		if d == nil {
			return "?"
		}
		return d.Placeholder(i)
	}), b.args
}

// Numbered returns the SQL text with numbered "$N" placeholders, regardless
// of the builder dialect. Arguments keep their order.
func (b *Builder) Numbered() (string, []any) {
	return b.render(func(i int) string {
		return "$" + strconv.Itoa(i)
	}), b.args
}

// String implements the fmt.Stringer interface.
func (b *Builder) String() string {
	s, _ := b.Query()
	return s
}

func (b *Builder) render(placeholder func(int) string) string {
	var (
		sb strings.Builder
		n  int
	)
	for _, p := range b.parts {
		if p.arg {
			n++
			sb.WriteString(placeholder(n))
			continue
		}
		sb.WriteString(p.text)
	}
	return sb.String()
}

// Rebind rewrites the positional "?" markers of query to numbered "$1",
// "$2", ... markers in order of appearance.
//
// The query is not parsed: a "?" inside a quoted string literal or a quoted
// identifier is rewritten as well. Bind such values as parameters instead.
func Rebind(query string) string {
	var (
		sb strings.Builder
		n  int
	)
	sb.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			sb.WriteByte(query[i])
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
