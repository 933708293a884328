package sql

import (
	"fmt"

	"github.com/syssam/sqlkit/dialect"
)

// Expr is a SQL expression that renders itself into a Builder, binding the
// values it carries in emission order.
type Expr interface {
	Render(b *Builder)
}

// ExprFunc adapts an ordinary function to the Expr interface.
type ExprFunc func(*Builder)

// Render calls f(b).
func (f ExprFunc) Render(b *Builder) { f(b) }

// Column appends a column operand: strings are quoted identifiers, column
// references are table-qualified and expressions are rendered.
func (b *Builder) Column(v any) *Builder {
	switch v := v.(type) {
	case string:
		b.Ident(v)
	case ColumnRef:
		b.QualifiedIdent(v.TableName(), v.DBName())
	case Expr:
		v.Render(b)
	default:
		b.AddError(fmt.Errorf("%w: %T", ErrInvalidOperand, v))
	}
	return b
}

// Comparison compares a column operand with a value: Left op Right.
type Comparison struct {
	Op    string
	Left  any // string, ColumnRef or Expr
	Right any // Expr and ColumnRef render inline, anything else is bound
}

// Render implements the Expr interface.
func (c *Comparison) Render(b *Builder) {
	b.Column(c.Left).Pad().WriteString(c.Op).Pad().Value(c.Right)
}

// EQ returns a "col = v" predicate.
func EQ(col, v any) Expr { return &Comparison{Op: "=", Left: col, Right: v} }

// NEQ returns a "col <> v" predicate.
func NEQ(col, v any) Expr { return &Comparison{Op: "<>", Left: col, Right: v} }

// GT returns a "col > v" predicate.
func GT(col, v any) Expr { return &Comparison{Op: ">", Left: col, Right: v} }

// GTE returns a "col >= v" predicate.
func GTE(col, v any) Expr { return &Comparison{Op: ">=", Left: col, Right: v} }

// LT returns a "col < v" predicate.
func LT(col, v any) Expr { return &Comparison{Op: "<", Left: col, Right: v} }

// LTE returns a "col <= v" predicate.
func LTE(col, v any) Expr { return &Comparison{Op: "<=", Left: col, Right: v} }

// Like returns a "col LIKE pattern" predicate. The pattern is bound.
func Like(col any, pattern string) Expr { return &Comparison{Op: "LIKE", Left: col, Right: pattern} }

// Combinator joins boolean expressions with AND or OR.
type Combinator struct {
	Op    string
	Exprs []Expr
}

func (c *Combinator) operands() []Expr {
	exprs := make([]Expr, 0, len(c.Exprs))
	for _, e := range c.Exprs {
		if e != nil {
			exprs = append(exprs, e)
		}
	}
	return exprs
}

// Render implements the Expr interface. Nil operands are skipped; more than
// one operand is parenthesized, and an empty combinator renders the
// identity literal of its operator (TRUE for AND, FALSE for OR). Operands
// that may contain their own AND or OR, such as raw fragments, are
// parenthesized individually.
func (c *Combinator) Render(b *Builder) {
	exprs := c.operands()
	switch len(exprs) {
	case 0:
		Bool(c.Op == "AND").Render(b)
	case 1:
		exprs[0].Render(b)
	default:
		b.Nested(func(b *Builder) {
			for i, e := range exprs {
				if i > 0 {
					b.Pad().WriteString(c.Op).Pad()
				}
				if bracketed(e) {
					e.Render(b)
				} else {
					b.Nested(e.Render)
				}
			}
		})
	}
}

// bracketed reports whether e renders as a single operand of AND and OR.
func bracketed(e Expr) bool {
	switch e := e.(type) {
	case *Comparison, *inExpr, *FuncCall, *Query, predicate:
		return true
	case *Combinator:
		exprs := e.operands()
		return len(exprs) != 1 || bracketed(exprs[0])
	default:
		return false
	}
}

// predicate is a closed boolean term that needs no parentheses.
type predicate func(*Builder)

func (p predicate) Render(b *Builder) { p(b) }

// And combines the predicates with AND.
func And(exprs ...Expr) Expr { return &Combinator{Op: "AND", Exprs: exprs} }

// Or combines the predicates with OR.
func Or(exprs ...Expr) Expr { return &Combinator{Op: "OR", Exprs: exprs} }

// Not negates the predicate.
func Not(e Expr) Expr {
	return predicate(func(b *Builder) {
		if e == nil {
			b.AddError(fmt.Errorf("%w: NOT of nil expression", ErrInvalidOperand))
			return
		}
		b.WriteString("NOT ").Nested(e.Render)
	})
}

// IsNull returns a "col IS NULL" predicate.
func IsNull(col any) Expr {
	return predicate(func(b *Builder) {
		b.Column(col).WriteString(" IS NULL")
	})
}

// NotNull returns a "col IS NOT NULL" predicate.
func NotNull(col any) Expr {
	return predicate(func(b *Builder) {
		b.Column(col).WriteString(" IS NOT NULL")
	})
}

// In returns a "col IN (v1, v2, ...)" predicate. A single *Query value is
// rendered as a subquery. An empty list is always false.
func In(col any, vs ...any) Expr { return &inExpr{col: col, values: vs} }

// NotIn returns a "col NOT IN (v1, v2, ...)" predicate. An empty list is always true.
func NotIn(col any, vs ...any) Expr { return &inExpr{col: col, values: vs, not: true} }

type inExpr struct {
	col    any
	values []any
	not    bool
}

func (e *inExpr) Render(b *Builder) {
	if len(e.values) == 0 {
		Bool(e.not).Render(b)
		return
	}
	b.Column(e.col)
	if e.not {
		b.WriteString(" NOT")
	}
	b.WriteString(" IN ")
	if q, ok := e.values[0].(*Query); ok && len(e.values) == 1 {
		q.Render(b)
		return
	}
	b.Nested(func(b *Builder) {
		for i, v := range e.values {
			if i > 0 {
				b.Comma()
			}
			b.Value(v)
		}
	})
}

// Between returns a "col BETWEEN lo AND hi" predicate.
func Between(col, lo, hi any) Expr {
	return predicate(func(b *Builder) {
		b.Column(col).WriteString(" BETWEEN ").Value(lo).WriteString(" AND ").Value(hi)
	})
}

// RawExpr is a hand-written SQL fragment. Each "?" in SQL is bound to the
// next value of Args at the point the fragment is emitted.
type RawExpr struct {
	SQL  string
	Args []any
}

// Render implements the Expr interface.
func (r *RawExpr) Render(b *Builder) { b.Append(r.SQL, r.Args...) }

// Raw returns a raw SQL fragment with bound arguments.
func Raw(sql string, args ...any) Expr { return &RawExpr{SQL: sql, Args: args} }

// FuncCall is a SQL function call. Arguments render like comparison values:
// expressions and column references inline, anything else bound.
type FuncCall struct {
	Name string
	Args []any
}

// Render implements the Expr interface.
func (f *FuncCall) Render(b *Builder) {
	b.WriteString(f.Name).Nested(func(b *Builder) {
		for i, a := range f.Args {
			if i > 0 {
				b.Comma()
			}
			b.Value(a)
		}
	})
}

// Func returns a function call expression.
//
//	sql.Func("COUNT", sql.Col("*"))          // COUNT(*)
//	sql.Func("lower", sql.Col("email"))      // lower("email")
//	sql.Func("coalesce", sql.Col("n"), 0)    // coalesce("n", $1)
func Func(name string, args ...any) Expr { return &FuncCall{Name: name, Args: args} }

// Col returns a column expression. Dotted names are quoted per part.
func Col(name string) Expr {
	return ExprFunc(func(b *Builder) { b.Ident(name) })
}

// C returns a table-qualified column expression.
func C(table, column string) Expr {
	return ExprFunc(func(b *Builder) { b.QualifiedIdent(table, column) })
}

// As aliases an expression or column in a select list.
func As(col any, alias string) Expr {
	return ExprFunc(func(b *Builder) {
		b.Column(col).WriteString(" AS ").Ident(alias)
	})
}

// Bool renders the dialect spelling of a boolean literal.
func Bool(v bool) Expr {
	return predicate(func(b *Builder) {
		if d := b.Dialect(); d != nil {
			b.WriteString(d.BooleanLiteral(v))
			return
		}
		if v {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	})
}

// Now renders the dialect current timestamp expression.
func Now() Expr {
	return ExprFunc(func(b *Builder) {
		if d := b.Dialect(); d != nil {
			b.WriteString(d.CurrentTimestampExpr())
			return
		}
		b.WriteString("CURRENT_TIMESTAMP")
	})
}

// Excluded references the value proposed for insertion in an upsert:
// EXCLUDED."col" for ON CONFLICT dialects and VALUES(`col`) for MySQL.
//
//	sql.Dialect(dialect.Postgres).Table("users").
//	    Insert(sql.NewValues().Set("email", e).Set("name", n)).
//	    OnConflictDoUpdate([]string{"email"}, sql.NewValues().Set("name", sql.Excluded("name")))
func Excluded(col string) Expr {
	return ExprFunc(func(b *Builder) {
		name := ""
		if d := b.Dialect(); d != nil {
			name = d.Name()
		}
		switch name {
		case dialect.MySQL:
			b.WriteString("VALUES").Nested(func(b *Builder) { b.Ident(col) })
		case dialect.SQLite, dialect.Postgres, dialect.Supabase:
			b.WriteString("EXCLUDED.").Ident(col)
		default:
			b.AddError(fmt.Errorf("dialect/sql: EXCLUDED is not supported by dialect %q", name))
		}
	})
}
