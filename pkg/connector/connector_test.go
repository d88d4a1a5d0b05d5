package connector

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile-time interface checks
var (
	_ DatabaseConnector = (*PostgresConnector)(nil)
	_ DatabaseConnector = (*SnowflakeConnector)(nil)
)

func TestBuildInsert(t *testing.T) {
	query, args := BuildInsert(`"public"."orders"`, []string{`"a"`, `"b"`}, [][]interface{}{
		{1, "x"},
		{2, nil},
	})

	assert.Equal(t, `INSERT INTO "public"."orders" ("a", "b") VALUES ($1, $2), ($3, $4)`, query)
	assert.Equal(t, []interface{}{1, "x", 2, nil}, args)
}

func TestApplyConnectionSettings(t *testing.T) {
	// sql.Open never dials, so no server is needed
	db, err := sql.Open("pgx", "host=localhost port=1 user=x dbname=y")
	require.NoError(t, err)
	defer db.Close()

	pool := PoolSettings{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute}
	ApplyConnectionSettings(db, pool)

	stats := GetConnectionStats(db, pool)
	assert.Equal(t, 7, stats.MaxOpenConns)
	assert.Equal(t, 3, stats.MaxIdleConns)
	assert.Equal(t, time.Minute, stats.ConnMaxLifetime)
	assert.Equal(t, 0, stats.OpenConnections)
}
