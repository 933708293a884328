package sql

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
)

var allDialects = []string{dialect.MySQL, dialect.SQLite, dialect.Postgres, dialect.Supabase}

// queryCases builds the same statements for every dialect.
var queryCases = map[string]func(name string) *Query{
	"select_join": func(name string) *Query {
		posts := Table("posts").As("p")
		return Dialect(name).Table("users").As("u").
			Select(C("u", "id"), C("u", "name"), As(Func("COUNT", posts.C("id")), "post_count")).
			LeftJoin(posts, EQ(C("u", "id"), posts.C("user_id"))).
			Where(EQ(C("u", "status"), "active")).
			Where(Or(GT(C("u", "age"), 18), IsNull(C("u", "age")))).
			GroupBy(C("u", "id"), C("u", "name")).
			Having(GT(Func("COUNT", posts.C("id")), 2)).
			OrderBy(Desc("post_count"), C("u", "name")).
			Limit(10).
			Offset(20)
	},
	"upsert": func(name string) *Query {
		return Dialect(name).Table("users").
			Insert(
				NewValues().Set("email", "a@example.com").Set("name", "A").Set("active", true),
				NewValues().Set("email", "b@example.com").Set("active", false),
			).
			OnConflictDoUpdate([]string{"email"}, NewValues().Set("name", Excluded("name")).Set("updated_at", Now())).
			Returning("id")
	},
	"update": func(name string) *Query {
		return Dialect(name).Table("users").
			Update(NewValues().Set("name", "B").Set("visits", Raw("visits + ?", 1))).
			Where(In("id", 1, 2, 3)).
			Returning()
	},
	"delete": func(name string) *Query {
		return Dialect(name).Table("sessions").
			Delete().
			Where(And(LT("expires_at", "2026-01-01"), Not(EQ("pinned", true)))).
			Limit(100).
			Returning("id")
	},
	"subquery": func(name string) *Query {
		orders := Dialect(name).Table("orders").Select("user_id").Where(GT("total", 100))
		return Dialect(name).Table("users").
			Select("id", "email").
			Where(In("id", orders)).
			Where(NotIn("status"))
	},
}

var queryArgs = map[string][]any{
	"select_join": {"active", 18, 2},
	"upsert":      {"a@example.com", "A", true, "b@example.com", nil, false},
	"update":      {"B", 1, 1, 2, 3},
	"delete":      {"2026-01-01", true},
	"subquery":    {100},
}

func TestQueryGolden(t *testing.T) {
	g := goldie.New(t)
	for name, build := range queryCases {
		for _, d := range allDialects {
			t.Run(name+"/"+d, func(t *testing.T) {
				query, args, err := build(d).ToSQL()
				require.NoError(t, err)
				g.Assert(t, name+"_"+d, []byte(query))
				assert.Equal(t, queryArgs[name], args)
			})
		}
	}
}

var dollarRe = regexp.MustCompile(`\$(\d+)`)

func TestQueryPlaceholderCount(t *testing.T) {
	for name, build := range queryCases {
		for _, d := range allDialects {
			t.Run(name+"/"+d, func(t *testing.T) {
				q := build(d)
				query, args, err := q.ToSQL()
				require.NoError(t, err)
				switch q.Dialect().PlaceholderStyle() {
				case dialect.PlaceholderQuestion:
					assert.Equal(t, len(args), strings.Count(query, "?"))
				case dialect.PlaceholderDollar:
					matches := dollarRe.FindAllStringSubmatch(query, -1)
					require.Len(t, matches, len(args))
					for i, m := range matches {
						assert.Equal(t, strconv.Itoa(i+1), m[1], "placeholders are numbered in order")
					}
				}
			})
		}
	}
}

func TestQueryImmutable(t *testing.T) {
	base := Dialect(dialect.Postgres).Table("users").Select("id").Where(EQ("active", true))
	a := base.Where(EQ("role", "admin")).OrderBy("id")
	b := base.Where(EQ("role", "guest")).Limit(1)

	query, args, err := base.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE "active" = $1`, query)
	assert.Equal(t, []any{true}, args)

	query, args, err = a.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE ("active" = $1 AND "role" = $2) ORDER BY "id" ASC`, query)
	assert.Equal(t, []any{true, "admin"}, args)

	query, args, err = b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE ("active" = $1 AND "role" = $2) LIMIT 1`, query)
	assert.Equal(t, []any{true, "guest"}, args)

	// Compiling twice yields the same output.
	again, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, query, again)
	assert.Equal(t, query, b.String())
}

func TestQueryErrors(t *testing.T) {
	users := func(name string) *Query { return Dialect(name).Table("users") }
	tests := []struct {
		name    string
		query   *Query
		wantErr error
	}{
		{"NoQueryType", users(dialect.Postgres), ErrNoQueryType},
		{"QueryTypeFixed", users(dialect.Postgres).Select().Delete(), ErrQueryTypeFixed},
		{"NoTable", Dialect(dialect.Postgres).Table("").Select(), ErrNoTable},
		{"UnknownDialect", users("oracle").Select(), dialect.ErrUnknownDialect},
		{"ZeroQuery", (&Query{}).Select(), dialect.ErrUnknownDialect},
		{"InsertNoRows", users(dialect.MySQL).Insert(), ErrEmptyValues},
		{"InsertEmptyRow", users(dialect.MySQL).Insert(NewValues()), ErrEmptyValues},
		{"UpdateEmpty", users(dialect.SQLite).Update(NewValues()), ErrEmptyValues},
		{"JoinWithoutOn", users(dialect.Postgres).Select().LeftJoin("posts", nil), ErrJoinWithoutOn},
		{"ConflictTarget", users(dialect.Postgres).Insert(NewValues().Set("a", 1)).OnConflictDoUpdate(nil, NewValues().Set("a", 2)), ErrConflictTarget},
		{"ConflictEmptySet", users(dialect.Postgres).Insert(NewValues().Set("a", 1)).OnConflictDoUpdate([]string{"a"}, NewValues()), ErrEmptyValues},
		{"NegativeLimit", users(dialect.Postgres).Select().Limit(-1), ErrNegativeLimit},
		{"NegativeOffset", users(dialect.Postgres).Select().Offset(-1), ErrNegativeLimit},
		{"InvalidOperand", users(dialect.Postgres).Select(3.14), ErrInvalidOperand},
		{"SubqueryError", users(dialect.Postgres).Select().Where(In("id", users(dialect.Postgres))), ErrNoQueryType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := tt.query.ToSQL()
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, query)
			assert.Nil(t, args)
			assert.Empty(t, tt.query.String())
		})
	}
}

func TestQueryInsert(t *testing.T) {
	t.Run("MissingKeysBindNull", func(t *testing.T) {
		query, args, err := Dialect(dialect.SQLite).Table("users").
			Insert(
				NewValues().Set("a", 1).Set("b", 2),
				NewValues().Set("b", 3).Set("c", 4),
			).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "users" ("a", "b") VALUES (?, ?), (?, ?)`, query)
		assert.Equal(t, []any{1, 2, nil, 3}, args, "columns come from the first row")
	})
	t.Run("ValuesOf", func(t *testing.T) {
		query, args, err := Dialect(dialect.Postgres).Table("users").
			Insert(ValuesOf(map[string]any{"name": "n", "email": "e", "age": 3})).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "users" ("age", "email", "name") VALUES ($1, $2, $3)`, query)
		assert.Equal(t, []any{3, "e", "n"}, args)
	})
	t.Run("ExpressionValue", func(t *testing.T) {
		id := uuid.New()
		query, args, err := Dialect(dialect.Postgres).Table("events").
			Insert(NewValues().Set("id", id).Set("created_at", Now())).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "events" ("id", "created_at") VALUES ($1, CURRENT_TIMESTAMP)`, query)
		assert.Equal(t, []any{id}, args)
	})
}

func TestQueryConflictDoNothing(t *testing.T) {
	row := NewValues().Set("email", "a@example.com")
	tests := []struct {
		dialect string
		target  []string
		want    string
	}{
		{dialect.MySQL, []string{"email"}, "INSERT IGNORE INTO `users` (`email`) VALUES (?)"},
		{dialect.MySQL, nil, "INSERT IGNORE INTO `users` (`email`) VALUES (?)"},
		{dialect.SQLite, nil, `INSERT INTO "users" ("email") VALUES (?) ON CONFLICT DO NOTHING`},
		{dialect.Postgres, []string{"email"}, `INSERT INTO "users" ("email") VALUES ($1) ON CONFLICT ("email") DO NOTHING`},
		{dialect.Supabase, []string{"email", "tenant_id"}, `INSERT INTO "users" ("email") VALUES ($1) ON CONFLICT ("email", "tenant_id") DO NOTHING`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			query, _, err := Dialect(tt.dialect).Table("users").Insert(row).OnConflictDoNothing(tt.target...).ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
		})
	}

	t.Run("MySQLDoUpdateWithoutTarget", func(t *testing.T) {
		query, _, err := Dialect(dialect.MySQL).Table("users").Insert(row).
			OnConflictDoUpdate(nil, NewValues().Set("email", Excluded("email"))).
			ToSQL()
		require.NoError(t, err, "MySQL infers the conflicting key")
		assert.Equal(t, "INSERT INTO `users` (`email`) VALUES (?) ON DUPLICATE KEY UPDATE `email` = VALUES(`email`)", query)
	})
}

func TestQueryUnsupportedCapabilities(t *testing.T) {
	t.Run("ReturningOmitted", func(t *testing.T) {
		q := Dialect(dialect.MySQL).Table("users").Insert(NewValues().Set("a", 1)).Returning("id")
		query, _, err := q.ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO `users` (`a`) VALUES (?)", query)
		assert.False(t, q.Dialect().SupportsReturning())
		assert.False(t, q.returnsRows())
	})
	t.Run("DeleteLimit", func(t *testing.T) {
		for _, d := range allDialects {
			q := Dialect(d).Table("t").Delete().Limit(5)
			query, _, err := q.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, q.Dialect().SupportsLimitInDelete(), strings.HasSuffix(query, " LIMIT 5"), d)
		}
	})
}

func TestQueryOffsetWithoutLimit(t *testing.T) {
	want := map[string]string{
		dialect.MySQL:    "SELECT * FROM `users` ORDER BY `id` ASC LIMIT 18446744073709551615 OFFSET 5",
		dialect.SQLite:   `SELECT * FROM "users" ORDER BY "id" ASC LIMIT -1 OFFSET 5`,
		dialect.Postgres: `SELECT * FROM "users" ORDER BY "id" ASC OFFSET 5`,
		dialect.Supabase: `SELECT * FROM "users" ORDER BY "id" ASC OFFSET 5`,
	}
	for _, d := range allDialects {
		t.Run(d, func(t *testing.T) {
			query, _, err := Dialect(d).Table("users").Select().OrderBy("id").Offset(5).ToSQL()
			require.NoError(t, err)
			assert.Equal(t, want[d], query)
		})
	}
}

func TestQueryJoins(t *testing.T) {
	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			"Cross",
			Dialect(dialect.Postgres).Table("a").Select().CrossJoin("b"),
			`SELECT * FROM "a" CROSS JOIN "b"`,
		},
		{
			"Inner",
			Dialect(dialect.Postgres).Table("a").Select().InnerJoin("b", EQ(C("a", "id"), C("b", "a_id"))),
			`SELECT * FROM "a" INNER JOIN "b" ON "a"."id" = "b"."a_id"`,
		},
		{
			"RightAndFull",
			Dialect(dialect.Postgres).Table("a").Select().
				RightJoin("b", EQ(C("a", "id"), C("b", "id"))).
				FullJoin("c", EQ(C("a", "id"), C("c", "id"))),
			`SELECT * FROM "a" RIGHT JOIN "b" ON "a"."id" = "b"."id" FULL OUTER JOIN "c" ON "a"."id" = "c"."id"`,
		},
		{
			"Distinct",
			Dialect(dialect.MySQL).Table("a").Select("x").Distinct(),
			"SELECT DISTINCT `x` FROM `a`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, _, err := tt.query.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
		})
	}
}

func TestQueryUpdateMerge(t *testing.T) {
	query, args, err := Dialect(dialect.Postgres).Table("users").
		Update(NewValues().Set("a", 1).Set("b", 2)).
		Update(NewValues().Set("a", 3)).
		Where(EQ("id", 7)).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "a" = $1, "b" = $2 WHERE "id" = $3`, query)
	assert.Equal(t, []any{3, 2, 7}, args)
}

func TestValues(t *testing.T) {
	base := NewValues().Set("a", 1).Set("b", 2)
	other := base.Set("c", 3)
	replaced := base.Set("a", 9)

	assert.Equal(t, []string{"a", "b"}, base.Columns())
	assert.Equal(t, []string{"a", "b", "c"}, other.Columns())
	assert.Equal(t, []string{"a", "b"}, replaced.Columns(), "replacing keeps the position")

	v, ok := base.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, _ = replaced.Get("a")
	assert.Equal(t, 9, v)
	_, ok = base.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 0, NewValues().Len())
}

func TestQueryRawPrecedence(t *testing.T) {
	query, args, err := Dialect(dialect.Postgres).Table("docs").
		Select().
		Where(Raw("owner_id = ? OR public", 7)).
		Where(EQ("tenant_id", 42)).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "docs" WHERE ((owner_id = $1 OR public) AND "tenant_id" = $2)`, query)
	assert.Equal(t, []any{7, 42}, args)

	query, _, err = Dialect(dialect.MySQL).Table("orders").
		Select("user_id").
		GroupBy("user_id").
		Having(Raw("COUNT(*) > ? OR SUM(total) > ?", 5, 100)).
		Having(GT(Func("MAX", Col("total")), 10)).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `user_id` FROM `orders` GROUP BY `user_id` HAVING ((COUNT(*) > ? OR SUM(total) > ?) AND MAX(`total`) > ?)", query)
}

func TestQueryUpsertBoundValue(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{dialect.MySQL, "INSERT INTO `users` (`email`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `name` = ?"},
		{dialect.SQLite, `INSERT INTO "users" ("email", "name") VALUES (?, ?) ON CONFLICT ("email") DO UPDATE SET "name" = ?`},
		{dialect.Postgres, `INSERT INTO "users" ("email", "name") VALUES ($1, $2) ON CONFLICT ("email") DO UPDATE SET "name" = $3`},
		{dialect.Supabase, `INSERT INTO "users" ("email", "name") VALUES ($1, $2) ON CONFLICT ("email") DO UPDATE SET "name" = $3`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			query, args, err := Dialect(tt.dialect).Table("users").
				Insert(NewValues().Set("email", "e").Set("name", "n")).
				OnConflictDoUpdate([]string{"email"}, NewValues().Set("name", "x")).
				ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, []any{"e", "n", "x"}, args)
		})
	}
}
