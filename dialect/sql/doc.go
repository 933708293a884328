// Package sql compiles dialect-aware SQL statements and executes them over
// database/sql.
//
// # Queries
//
// A Query is an immutable description of a single SELECT, INSERT, UPDATE or
// DELETE statement against one table. Every builder method returns a new
// Query, so a partially built query can be shared and extended freely:
//
//	users := sql.Dialect(dialect.Postgres).Table("users")
//	active := users.Select("id", "email").Where(sql.EQ("active", true))
//	query, args, err := active.OrderBy(sql.Desc("created_at")).Limit(10).ToSQL()
//	// SELECT "id", "email" FROM "users" WHERE "active" = $1 ORDER BY "created_at" DESC LIMIT 10
//
// Errors collected while building are reported by ToSQL; no partial SQL is
// returned with an error.
//
// # Dialects
//
// Identifier quoting, placeholders, boolean literals and the upsert syntax
// follow the dialect of the query:
//
//	users.Insert(sql.NewValues().Set("email", e).Set("name", n)).
//	    OnConflictDoUpdate([]string{"email"}, sql.NewValues().Set("name", sql.Excluded("name")))
//
//	// postgres: INSERT INTO "users" ("email", "name") VALUES ($1, $2)
//	//           ON CONFLICT ("email") DO UPDATE SET "name" = EXCLUDED."name"
//	// mysql:    INSERT INTO `users` (`email`, `name`) VALUES (?, ?)
//	//           ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)
//
// Clauses a dialect cannot express are omitted rather than rejected:
// RETURNING on MySQL and LIMIT in a DELETE outside MySQL.
//
// # Expressions
//
// WHERE and HAVING conditions are built from Expr values such as EQ, In,
// Between, And, Or and Raw. Field and StringField give column names a value
// type:
//
//	var (
//	    age   = sql.Field[int]("age")
//	    email = sql.StringField("email")
//	)
//	users.Select().Where(sql.And(age.GTE(18), email.HasSuffix("@example.com")))
//
// # Execution
//
// A Manager owns one lazily opened connection per configured dialect:
//
//	m, err := sql.NewManager(dialect.SQLite, map[string]any{"database": "app.db"})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	res, err := m.Run(ctx, users.Insert(row).Returning("id"))
//
// Queries also execute on any dialect.ExecQuerier with Query.Exec, including
// transactions and the StatsDriver and DebugDriver wrappers.
package sql
