// Package schema provides minimal read-only table and column descriptors.
//
// A Table carries its name and the dialect tag it is bound to; a Column
// carries its logical name, its database-facing name and its owning table.
// Both satisfy the reference interfaces of dialect/sql, so queries built
// from a Table inherit its dialect and columns render table-qualified:
//
//	users := schema.NewTable("users", dialect.Postgres)
//	email := users.ColumnAs("Email", "email_address")
//
//	q := sql.NewQuery(users).
//	    Select(users.Column("id"), email).
//	    Where(sql.EQ(email, addr))
//	// SELECT "users"."id", "users"."email_address" FROM "users" WHERE "users"."email_address" = $1
package schema
