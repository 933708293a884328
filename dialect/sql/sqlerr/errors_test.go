package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, None},
		{"plain", errors.New("connection refused"), None},
		{"pq_unique", &pq.Error{Code: "23505"}, Unique},
		{"pq_other", &pq.Error{Code: "42P01"}, None},
		{"pgx_foreign_key", &pgconn.PgError{Code: "23503"}, ForeignKey},
		{"pgx_check_wrapped", fmt.Errorf("dialect/sql: exec: %w", &pgconn.PgError{Code: "23514"}), Check},
		{"mysql_duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, Unique},
		{"mysql_parent_row", &mysql.MySQLError{Number: 1451}, ForeignKey},
		{"mysql_child_row", &mysql.MySQLError{Number: 1452}, ForeignKey},
		{"mysql_check", &mysql.MySQLError{Number: 3819}, Check},
		{"mysql_other", &mysql.MySQLError{Number: 1146}, None},
		{"string_unique", errors.New("UNIQUE constraint failed: users.email"), Unique},
		{"string_foreign_key", errors.New(`insert violates foreign key constraint "fk"`), ForeignKey},
		{"string_check", errors.New("CHECK constraint failed: age"), Check},
		{"already_classified", &ConstraintError{Kind: Check, Err: errors.New("x")}, Check},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want != None, IsConstraintError(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	plain := errors.New("timeout")
	assert.Same(t, plain, Wrap(plain))

	driverErr := &pgconn.PgError{Code: "23505"}
	err := Wrap(driverErr)
	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Unique, ce.Kind)
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "unique constraint violation")
}

func TestSQLiteConstraints(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", "file:sqlerr?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `CREATE TABLE "users" ("id" INTEGER PRIMARY KEY, "email" TEXT UNIQUE, "age" INTEGER CHECK ("age" >= 0))`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE "posts" ("id" INTEGER PRIMARY KEY, "user_id" INTEGER REFERENCES "users" ("id"))`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO "users" ("id", "email", "age") VALUES (1, 'a@example.com', 30)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO "users" ("id", "email", "age") VALUES (2, 'a@example.com', 30)`)
	assert.True(t, IsUniqueConstraintError(err), "%v", err)

	_, err = db.ExecContext(ctx, `INSERT INTO "users" ("id", "email", "age") VALUES (3, 'b@example.com', -1)`)
	assert.True(t, IsCheckConstraintError(err), "%v", err)

	_, err = db.ExecContext(ctx, `INSERT INTO "posts" ("id", "user_id") VALUES (1, 42)`)
	assert.True(t, IsForeignKeyConstraintError(err), "%v", err)
}
