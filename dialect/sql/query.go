package sql

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/syssam/sqlkit/dialect"
)

// TableRef is the read-only view of a table definition the compiler needs.
// It is implemented by schema.Table.
type TableRef interface {
	TableName() string
	DialectName() string
}

// ColumnRef is the read-only view of a column definition the compiler needs.
// TableName is empty for columns that do not belong to a table.
// It is implemented by schema.Column.
type ColumnRef interface {
	DBName() string
	TableName() string
}

type queryKind int

const (
	kindNone queryKind = iota
	kindSelect
	kindInsert
	kindUpdate
	kindDelete
)

func (k queryKind) String() string {
	switch k {
	case kindSelect:
		return "SELECT"
	case kindInsert:
		return "INSERT"
	case kindUpdate:
		return "UPDATE"
	case kindDelete:
		return "DELETE"
	default:
		return "NONE"
	}
}

// JoinKind is the type of a join clause.
type JoinKind string

// Supported join kinds.
const (
	JoinInner JoinKind = "INNER JOIN"
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinRight JoinKind = "RIGHT JOIN"
	JoinFull  JoinKind = "FULL OUTER JOIN"
	JoinCross JoinKind = "CROSS JOIN"
)

type join struct {
	kind  JoinKind
	table any // string, TableRef or *SelectTable
	on    Expr
}

// SelectTable is a table reference with an optional alias, used in joins.
type SelectTable struct {
	name  string
	alias string
}

// Table returns a table reference for joins.
//
//	posts := sql.Table("posts").As("p")
//	q.LeftJoin(posts, sql.EQ(sql.C("u", "id"), posts.C("user_id")))
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// As returns a copy of the table reference with the given alias.
func (t *SelectTable) As(alias string) *SelectTable {
	return &SelectTable{name: t.name, alias: alias}
}

// C returns a column qualified by the table alias, or its name.
func (t *SelectTable) C(column string) Expr {
	qualifier := t.alias
	if qualifier == "" {
		qualifier = t.name
	}
	return C(qualifier, column)
}

// OrderTerm is an ORDER BY entry. Column is a string, ColumnRef or Expr.
type OrderTerm struct {
	Column any
	Desc   bool
}

// Asc orders by col ascending.
func Asc(col any) OrderTerm { return OrderTerm{Column: col} }

// Desc orders by col descending.
func Desc(col any) OrderTerm { return OrderTerm{Column: col, Desc: true} }

type conflictAction int

const (
	conflictNone conflictAction = iota
	conflictDoNothing
	conflictDoUpdate
)

type conflict struct {
	action conflictAction
	target []string
	set    Values
}

// Query is an immutable, dialect-aware description of a single statement.
// Every method returns a new Query derived from the receiver, which is left
// unchanged; deriving queries from a shared base is therefore safe.
//
//	users := schema.NewTable("users", dialect.Postgres)
//	q := sql.NewQuery(users).
//	    Select(users.Column("id"), users.Column("name")).
//	    Where(sql.EQ(users.Column("status"), "active")).
//	    OrderBy(sql.Desc("created_at")).
//	    Limit(10)
//	query, args, err := q.ToSQL()
//	// SELECT "users"."id", "users"."name" FROM "users" WHERE "users"."status" = $1 ORDER BY "created_at" DESC LIMIT 10
type Query struct {
	dialect dialect.Dialect
	table   string
	alias   string
	err     error // construction errors, reported by ToSQL
	kind    queryKind

	distinct  bool
	columns   []any
	joins     []join
	where     []Expr
	groupBy   []any
	having    []Expr
	order     []OrderTerm
	limit     *int
	offset    *int
	rows      []Values
	set       Values
	conflict  conflict
	returning []string
	returnSet bool
}

// DialectBuilder creates queries and raw builders for one dialect.
type DialectBuilder struct {
	dialect dialect.Dialect
	err     error
}

// Dialect returns a DialectBuilder for the named dialect. An unknown name is
// reported when the resulting queries are compiled.
func Dialect(name string) *DialectBuilder {
	d, err := dialect.Open(name)
	return &DialectBuilder{dialect: d, err: err}
}

// Table returns an untyped Query targeting the table.
func (d *DialectBuilder) Table(name string) *Query {
	return &Query{dialect: d.dialect, table: name, err: d.err}
}

// Builder returns a raw Builder for the dialect.
func (d *DialectBuilder) Builder() *Builder {
	return NewBuilder(d.dialect).AddError(d.err)
}

// NewQuery returns an untyped Query targeting t. The dialect is taken from
// the table and fixed for the life of the query.
func NewQuery(t TableRef) *Query {
	return Dialect(t.DialectName()).Table(t.TableName())
}

// Dialect returns the dialect of the query, or nil if it is unknown.
func (q *Query) Dialect() dialect.Dialect {
	return q.dialect
}

// TableName returns the target table.
func (q *Query) TableName() string {
	return q.table
}

func (q *Query) clone() *Query {
	c := *q
	return &c
}

func (q *Query) setKind(k queryKind) *Query {
	c := q.clone()
	if c.kind != kindNone && c.kind != k {
		c.err = errors.Join(c.err, fmt.Errorf("%w: %s to %s", ErrQueryTypeFixed, c.kind, k))
		return c
	}
	c.kind = k
	return c
}

// Select makes the query a SELECT of the given columns. Columns are strings,
// ColumnRef values or expressions; no columns selects "*".
func (q *Query) Select(columns ...any) *Query {
	c := q.setKind(kindSelect)
	c.columns = append(slices.Clip(c.columns), columns...)
	return c
}

// Insert makes the query an INSERT of the given rows. The column list is
// taken from the first row; columns missing from later rows are bound as NULL.
func (q *Query) Insert(rows ...Values) *Query {
	c := q.setKind(kindInsert)
	c.rows = append(slices.Clip(c.rows), rows...)
	return c
}

// Update makes the query an UPDATE setting the given values, in order.
func (q *Query) Update(values Values) *Query {
	c := q.setKind(kindUpdate)
	for _, col := range values.columns {
		c.set = c.set.Set(col, values.values[col])
	}
	return c
}

// Delete makes the query a DELETE.
func (q *Query) Delete() *Query {
	return q.setKind(kindDelete)
}

// As sets an alias for the target table of a SELECT.
func (q *Query) As(alias string) *Query {
	c := q.clone()
	c.alias = alias
	return c
}

// Distinct adds the DISTINCT modifier to a SELECT.
func (q *Query) Distinct() *Query {
	c := q.clone()
	c.distinct = true
	return c
}

// Where adds a predicate. Multiple predicates are combined with AND.
func (q *Query) Where(e Expr) *Query {
	c := q.clone()
	if e != nil {
		c.where = append(slices.Clip(c.where), e)
	}
	return c
}

// Join adds a join clause. CROSS joins ignore on; every other kind requires it.
func (q *Query) Join(kind JoinKind, table any, on Expr) *Query {
	c := q.clone()
	c.joins = append(slices.Clip(c.joins), join{kind: kind, table: table, on: on})
	return c
}

// InnerJoin adds an INNER JOIN clause.
func (q *Query) InnerJoin(table any, on Expr) *Query { return q.Join(JoinInner, table, on) }

// LeftJoin adds a LEFT JOIN clause.
func (q *Query) LeftJoin(table any, on Expr) *Query { return q.Join(JoinLeft, table, on) }

// RightJoin adds a RIGHT JOIN clause.
func (q *Query) RightJoin(table any, on Expr) *Query { return q.Join(JoinRight, table, on) }

// FullJoin adds a FULL OUTER JOIN clause.
func (q *Query) FullJoin(table any, on Expr) *Query { return q.Join(JoinFull, table, on) }

// CrossJoin adds a CROSS JOIN clause.
func (q *Query) CrossJoin(table any) *Query { return q.Join(JoinCross, table, nil) }

// GroupBy adds GROUP BY columns.
func (q *Query) GroupBy(columns ...any) *Query {
	c := q.clone()
	c.groupBy = append(slices.Clip(c.groupBy), columns...)
	return c
}

// Having adds a HAVING predicate. Multiple predicates are combined with AND.
func (q *Query) Having(e Expr) *Query {
	c := q.clone()
	if e != nil {
		c.having = append(slices.Clip(c.having), e)
	}
	return c
}

// OrderBy adds ORDER BY terms. A term is an OrderTerm (see Asc and Desc) or
// a column operand, which is ordered ascending.
func (q *Query) OrderBy(terms ...any) *Query {
	c := q.clone()
	order := slices.Clip(c.order)
	for _, t := range terms {
		switch t := t.(type) {
		case OrderTerm:
			order = append(order, t)
		default:
			order = append(order, Asc(t))
		}
	}
	c.order = order
	return c
}

// Limit sets the LIMIT of a SELECT, or of a DELETE on dialects that support it.
func (q *Query) Limit(n int) *Query {
	c := q.clone()
	c.limit = &n
	return c
}

// Offset sets the OFFSET of a SELECT.
func (q *Query) Offset(n int) *Query {
	c := q.clone()
	c.offset = &n
	return c
}

// OnConflictDoNothing makes an INSERT skip conflicting rows. The target
// columns identify the unique constraint and may be omitted. On MySQL the
// statement becomes INSERT IGNORE and the target is not expressible.
func (q *Query) OnConflictDoNothing(target ...string) *Query {
	c := q.clone()
	c.conflict = conflict{action: conflictDoNothing, target: slices.Clone(target)}
	return c
}

// OnConflictDoUpdate makes an INSERT update conflicting rows with set. On
// MySQL this is ON DUPLICATE KEY UPDATE and the target is not emitted, as the
// engine infers the conflicting key.
func (q *Query) OnConflictDoUpdate(target []string, set Values) *Query {
	c := q.clone()
	c.conflict = conflict{action: conflictDoUpdate, target: slices.Clone(target), set: set}
	return c
}

// Returning requests the given columns (or "*" when none) back from an
// INSERT, UPDATE or DELETE. On dialects without RETURNING support the
// request is silently dropped; check Dialect().SupportsReturning() before
// relying on returned rows.
func (q *Query) Returning(columns ...string) *Query {
	c := q.clone()
	c.returning = slices.Clone(columns)
	c.returnSet = true
	return c
}

// ToSQL compiles the query into SQL text and its ordered arguments.
func (q *Query) ToSQL() (string, []any, error) {
	b := NewBuilder(q.dialect)
	q.build(b)
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	query, args := b.Query()
	return query, args, nil
}

// String returns the compiled SQL text, or an empty string if the query is invalid.
func (q *Query) String() string {
	query, _, _ := q.ToSQL()
	return query
}

// Render implements the Expr interface. The query is rendered as a
// parenthesized subquery.
func (q *Query) Render(b *Builder) {
	if q == nil {
		b.AddError(fmt.Errorf("%w: nil *Query", ErrInvalidOperand))
		return
	}
	b.Nested(q.build)
}

// returnsRows reports whether executing the query yields rows.
func (q *Query) returnsRows() bool {
	switch q.kind {
	case kindSelect:
		return true
	case kindInsert, kindUpdate, kindDelete:
		return q.returnSet && q.dialect != nil && q.dialect.SupportsReturning()
	default:
		return false
	}
}

func (q *Query) build(b *Builder) {
	if q.err != nil {
		b.AddError(q.err)
		return
	}
	if q.dialect == nil {
		b.AddError(dialect.ErrUnknownDialect)
		return
	}
	if q.table == "" {
		b.AddError(ErrNoTable)
		return
	}
	if (q.limit != nil && *q.limit < 0) || (q.offset != nil && *q.offset < 0) {
		b.AddError(ErrNegativeLimit)
		return
	}
	switch q.kind {
	case kindSelect:
		q.buildSelect(b)
	case kindInsert:
		q.buildInsert(b)
	case kindUpdate:
		q.buildUpdate(b)
	case kindDelete:
		q.buildDelete(b)
	default:
		b.AddError(ErrNoQueryType)
	}
}

func (q *Query) buildSelect(b *Builder) {
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(q.columns) == 0 {
		b.WriteString("*")
	}
	for i, col := range q.columns {
		if i > 0 {
			b.Comma()
		}
		b.Column(col)
	}
	b.WriteString(" FROM ").Ident(q.table)
	if q.alias != "" {
		b.WriteString(" AS ").Ident(q.alias)
	}
	for _, j := range q.joins {
		b.Pad().WriteString(string(j.kind)).Pad()
		q.joinTable(b, j.table)
		if j.kind == JoinCross {
			continue
		}
		if j.on == nil {
			b.AddError(fmt.Errorf("%w: %s", ErrJoinWithoutOn, j.kind))
			continue
		}
		b.WriteString(" ON ")
		j.on.Render(b)
	}
	q.buildWhere(b)
	if len(q.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, col := range q.groupBy {
			if i > 0 {
				b.Comma()
			}
			b.Column(col)
		}
	}
	if len(q.having) > 0 {
		b.WriteString(" HAVING ")
		And(q.having...).Render(b)
	}
	if len(q.order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, t := range q.order {
			if i > 0 {
				b.Comma()
			}
			b.Column(t.Column)
			if t.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}
	q.buildLimit(b)
}

func (q *Query) joinTable(b *Builder, table any) {
	switch t := table.(type) {
	case string:
		b.Ident(t)
	case *SelectTable:
		b.Ident(t.name)
		if t.alias != "" {
			b.WriteString(" AS ").Ident(t.alias)
		}
	case TableRef:
		b.Ident(t.TableName())
	default:
		b.AddError(fmt.Errorf("dialect/sql: invalid join table %T", table))
	}
}

// buildLimit writes LIMIT and OFFSET as inline integers. They are typed as
// int at the API boundary and never come from bound input.
func (q *Query) buildLimit(b *Builder) {
	if q.limit != nil {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*q.limit))
	} else if q.offset != nil {
		// MySQL and SQLite cannot express OFFSET without LIMIT.
		switch q.dialect.Name() {
		case dialect.MySQL:
			b.WriteString(" LIMIT 18446744073709551615")
		case dialect.SQLite:
			b.WriteString(" LIMIT -1")
		case dialect.Postgres, dialect.Supabase:
		}
	}
	if q.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*q.offset))
	}
}

func (q *Query) buildInsert(b *Builder) {
	if len(q.rows) == 0 || q.rows[0].Len() == 0 {
		b.AddError(fmt.Errorf("%w: INSERT into %q", ErrEmptyValues, q.table))
		return
	}
	columns := q.rows[0].columns
	keyword := "INSERT INTO "
	// MySQL has no ON CONFLICT DO NOTHING; the keyword itself changes.
	if q.conflict.action == conflictDoNothing && q.dialect.Name() == dialect.MySQL {
		keyword = "INSERT IGNORE INTO "
	}
	b.WriteString(keyword).Ident(q.table).WriteString(" (").IdentComma(columns...).WriteString(") VALUES ")
	for i, row := range q.rows {
		if i > 0 {
			b.Comma()
		}
		b.Nested(func(b *Builder) {
			for j, col := range columns {
				if j > 0 {
					b.Comma()
				}
				v, ok := row.Get(col)
				if !ok {
					b.Arg(nil)
					continue
				}
				b.Value(v)
			}
		})
	}
	q.buildConflict(b)
	q.buildReturning(b)
}

func (q *Query) buildConflict(b *Builder) {
	c := q.conflict
	if c.action == conflictNone {
		return
	}
	if c.action == conflictDoUpdate && c.set.Len() == 0 {
		b.AddError(fmt.Errorf("%w: ON CONFLICT DO UPDATE", ErrEmptyValues))
		return
	}
	switch name := q.dialect.Name(); name {
	case dialect.MySQL:
		if c.action == conflictDoUpdate {
			b.WriteString(" ON DUPLICATE KEY UPDATE ")
			assignments(b, c.set)
		}
	case dialect.SQLite, dialect.Postgres, dialect.Supabase:
		b.WriteString(" ON CONFLICT")
		if len(c.target) > 0 {
			b.WriteString(" (").IdentComma(c.target...).WriteString(")")
		}
		if c.action == conflictDoNothing {
			b.WriteString(" DO NOTHING")
			return
		}
		if len(c.target) == 0 {
			b.AddError(ErrConflictTarget)
			return
		}
		b.WriteString(" DO UPDATE SET ")
		assignments(b, c.set)
	default:
		b.AddError(fmt.Errorf("dialect/sql: conflict resolution is not supported by dialect %q", name))
	}
}

func (q *Query) buildUpdate(b *Builder) {
	if q.set.Len() == 0 {
		b.AddError(fmt.Errorf("%w: UPDATE %q", ErrEmptyValues, q.table))
		return
	}
	b.WriteString("UPDATE ").Ident(q.table).WriteString(" SET ")
	assignments(b, q.set)
	q.buildWhere(b)
	q.buildReturning(b)
}

func (q *Query) buildDelete(b *Builder) {
	b.WriteString("DELETE FROM ").Ident(q.table)
	q.buildWhere(b)
	if q.limit != nil && q.dialect.SupportsLimitInDelete() {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*q.limit))
	}
	q.buildReturning(b)
}

func (q *Query) buildWhere(b *Builder) {
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		And(q.where...).Render(b)
	}
}

func (q *Query) buildReturning(b *Builder) {
	if !q.returnSet || !q.dialect.SupportsReturning() {
		return
	}
	b.WriteString(" RETURNING ")
	if len(q.returning) == 0 {
		b.WriteString("*")
		return
	}
	b.IdentComma(q.returning...)
}

// assignments writes "col = value" pairs in order. Values follow the same
// expression-or-bound rule as INSERT values.
func assignments(b *Builder, set Values) {
	for i, col := range set.columns {
		if i > 0 {
			b.Comma()
		}
		b.Ident(col).WriteString(" = ").Value(set.values[col])
	}
}
