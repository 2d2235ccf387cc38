package utils

import (
	"database/sql"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestDBHealthCheck(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	db := dbx.NewFromDB(sqlDB, "sqlite")
	assert.NoError(t, DBHealthCheck(db))

	require.NoError(t, sqlDB.Close())
	assert.Error(t, DBHealthCheck(db))
}
