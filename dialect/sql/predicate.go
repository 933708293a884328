package sql

import (
	"strings"
)

// Field is a typed column name. Predicates built from a Field only accept
// values of its Go type, so mismatches are caught at compile time.
//
//	var (
//	    Age       = sql.Field[int]("age")
//	    CreatedAt = sql.Field[time.Time]("created_at")
//	)
//	q.Where(sql.And(Age.GTE(18), CreatedAt.LT(cutoff)))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f Field[T]) EQ(v T) Expr { return EQ(string(f), v) }

// NEQ returns a predicate that checks if the column does not equal v.
func (f Field[T]) NEQ(v T) Expr { return NEQ(string(f), v) }

// GT returns a predicate that checks if the column is greater than v.
func (f Field[T]) GT(v T) Expr { return GT(string(f), v) }

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (f Field[T]) GTE(v T) Expr { return GTE(string(f), v) }

// LT returns a predicate that checks if the column is less than v.
func (f Field[T]) LT(v T) Expr { return LT(string(f), v) }

// LTE returns a predicate that checks if the column is less than or equal to v.
func (f Field[T]) LTE(v T) Expr { return LTE(string(f), v) }

// In returns a predicate that checks if the column value is in vs.
func (f Field[T]) In(vs ...T) Expr { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks if the column value is not in vs.
func (f Field[T]) NotIn(vs ...T) Expr { return NotIn(string(f), anySlice(vs)...) }

// Between returns a predicate that checks if the column is within [lo, hi].
func (f Field[T]) Between(lo, hi T) Expr { return Between(string(f), lo, hi) }

// IsNull returns a predicate that checks if the column is NULL.
func (f Field[T]) IsNull() Expr { return IsNull(string(f)) }

// NotNull returns a predicate that checks if the column is not NULL.
func (f Field[T]) NotNull() Expr { return NotNull(string(f)) }

// Asc orders by the column ascending.
func (f Field[T]) Asc() OrderTerm { return Asc(string(f)) }

// Desc orders by the column descending.
func (f Field[T]) Desc() OrderTerm { return Desc(string(f)) }

// Set returns a copy of vals with the column set to v.
func (f Field[T]) Set(vals Values, v T) Values { return vals.Set(string(f), v) }

// StringField is a typed text column with pattern matching predicates.
//
//	var Email = sql.StringField("email")
//	q.Where(Email.HasSuffix("@example.com"))
type StringField string

func (f StringField) field() Field[string] { return Field[string](f) }

// Name returns the column name.
func (f StringField) Name() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f StringField) EQ(v string) Expr { return f.field().EQ(v) }

// NEQ returns a predicate that checks if the column does not equal v.
func (f StringField) NEQ(v string) Expr { return f.field().NEQ(v) }

// GT returns a predicate that checks if the column sorts after v.
func (f StringField) GT(v string) Expr { return f.field().GT(v) }

// LT returns a predicate that checks if the column sorts before v.
func (f StringField) LT(v string) Expr { return f.field().LT(v) }

// In returns a predicate that checks if the column value is in vs.
func (f StringField) In(vs ...string) Expr { return f.field().In(vs...) }

// NotIn returns a predicate that checks if the column value is not in vs.
func (f StringField) NotIn(vs ...string) Expr { return f.field().NotIn(vs...) }

// IsNull returns a predicate that checks if the column is NULL.
func (f StringField) IsNull() Expr { return f.field().IsNull() }

// NotNull returns a predicate that checks if the column is not NULL.
func (f StringField) NotNull() Expr { return f.field().NotNull() }

// Set returns a copy of vals with the column set to v.
func (f StringField) Set(vals Values, v string) Values { return f.field().Set(vals, v) }

// Contains returns a predicate that checks if the column contains the substring.
func (f StringField) Contains(v string) Expr {
	return likeExpr(Col(string(f)), "%"+escapeLike(v)+"%")
}

// ContainsFold is the case-insensitive form of Contains.
func (f StringField) ContainsFold(v string) Expr {
	return likeExpr(Func("lower", Col(string(f))), "%"+escapeLike(strings.ToLower(v))+"%")
}

// HasPrefix returns a predicate that checks if the column starts with the prefix.
func (f StringField) HasPrefix(v string) Expr {
	return likeExpr(Col(string(f)), escapeLike(v)+"%")
}

// HasSuffix returns a predicate that checks if the column ends with the suffix.
func (f StringField) HasSuffix(v string) Expr {
	return likeExpr(Col(string(f)), "%"+escapeLike(v))
}

// EqualFold returns a predicate that checks if the column equals v, ignoring case.
func (f StringField) EqualFold(v string) Expr {
	return EQ(Func("lower", Col(string(f))), strings.ToLower(v))
}

// likeEscape is the LIKE escape character. Backslash is avoided as it is
// itself an escape inside MySQL string literals.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

func escapeLike(s string) string { return likeReplacer.Replace(s) }

func likeExpr(col Expr, pattern string) Expr {
	return predicate(func(b *Builder) {
		col.Render(b)
		b.WriteString(" LIKE ").Arg(pattern).WriteString(" ESCAPE '" + likeEscape + "'")
	})
}

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
