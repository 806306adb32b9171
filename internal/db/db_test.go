package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatements(t *testing.T) {
	schema := `
-- tokens
CREATE TABLE a (id INTEGER);

  -- indented comment
CREATE INDEX idx_a ON a (id);
;
`
	stmts := splitSQLStatements(schema)
	assert.Equal(t, []string{"CREATE TABLE a (id INTEGER)", "CREATE INDEX idx_a ON a (id)"}, stmts)
}

func TestNewDBSQLiteCreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	ctx := context.Background()

	database, err := NewDB(ctx, "sqlite", path, "test")
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, "sqlite", database.Driver())
	require.NoError(t, database.InitSchema(ctx, "CREATE TABLE IF NOT EXISTS t (k TEXT PRIMARY KEY, v TEXT);"))

	_, err = database.ExecContext(ctx, "INSERT INTO t (k, v) VALUES (?, ?)", "a", "b")
	require.NoError(t, err)

	var v string
	require.NoError(t, database.QueryRowContext(ctx, "SELECT v FROM t WHERE k = ?", "a").Scan(&v))
	assert.Equal(t, "b", v)
}

func TestInitSchemaReportsFailingStatement(t *testing.T) {
	ctx := context.Background()
	database, err := NewDB(ctx, "sqlite", filepath.Join(t.TempDir(), "s.db"), "test")
	require.NoError(t, err)
	defer database.Close()

	err = database.InitSchema(ctx, "CREATE TABLE ok (id INTEGER); NOT VALID SQL;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")
}
