package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE exchangerate (pair TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	err := repo.Store(TableExchangeRate, "USD:CNY", map[string]interface{}{"rate": 7.21, "source": "alphavantage"}, TTLExchangeRate)
	require.NoError(t, err)

	var storedData string
	var expiresAt int64
	err = db.QueryRow("SELECT data, expires_at FROM exchangerate WHERE pair = ?", "USD:CNY").Scan(&storedData, &expiresAt)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(storedData), &parsed))
	assert.Equal(t, "alphavantage", parsed["source"])
	assert.InDelta(t, time.Now().Add(TTLExchangeRate).Unix(), expiresAt, 5)
}

func TestStoreUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableExchangeRate, "USD:CNY", map[string]float64{"rate": 7.1}, time.Hour))
	require.NoError(t, repo.Store(TableExchangeRate, "USD:CNY", map[string]float64{"rate": 7.2}, time.Hour))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM exchangerate").Scan(&count))
	assert.Equal(t, 1, count)

	data, err := repo.Get(TableExchangeRate, "USD:CNY")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":7.2}`, string(data))
}

func TestGet_ReturnsExpiredRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableExchangeRate, "USD:CNY", map[string]float64{"rate": 7.18}, -time.Minute))

	stale, err := repo.Get(TableExchangeRate, "USD:CNY")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":7.18}`, string(stale))
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	data, err := repo.Get(TableExchangeRate, "EUR:CNY")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"store", func() error { return repo.Store("users; DROP TABLE x", "k", 1, time.Hour) }},
		{"get", func() error { _, err := repo.Get("openfigi", "k"); return err }},
		{"delete expired", func() error { _, err := repo.DeleteExpired("nope"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid table name")
		})
	}
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	retention := StaleRetention[TableExchangeRate]
	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableExchangeRate, "USD:CNY", 1, -retention-time.Hour))
	require.NoError(t, repo.Store(TableExchangeRate, "USD:HKD", 1, -time.Hour))
	require.NoError(t, repo.Store(TableExchangeRate, "EUR:CNY", 1, time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableExchangeRate])

	stale, err := repo.Get(TableExchangeRate, "USD:HKD")
	require.NoError(t, err)
	assert.NotNil(t, stale, "recently expired rows stay as fallback")
}
