package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueriesFollowDriver(t *testing.T) {
	postgres := &Store{table: "geocode_cache"}
	postgres.connector.FillSettings(map[string]string{"type": "postgresql", "host": "h", "port": "1", "user": "u", "database": "d", "sslmode": "disable"})
	assert.Contains(t, postgres.insertQuery(), "VALUES ($1, $2, $3)")
	assert.Contains(t, postgres.createTableQuery(), "BIGSERIAL")

	mysql := &Store{table: "geocode_cache"}
	mysql.connector.FillSettings(map[string]string{"type": "mysql", "host": "h", "port": "1", "user": "u", "database": "d", "sslmode": "disable"})
	assert.Contains(t, mysql.insertQuery(), "VALUES (?, ?, ?)")
	assert.Contains(t, mysql.createTableQuery(), "AUTO_INCREMENT")
}

func TestTrimKeepsNewest(t *testing.T) {
	s := &Store{table: "geo"}
	assert.Equal(t,
		"DELETE FROM geo WHERE id NOT IN (SELECT id FROM (SELECT id FROM geo ORDER BY id DESC LIMIT 500) AS newest)",
		s.trimQuery(500))
}

func TestInitRejectsUnsafeTableName(t *testing.T) {
	s := &Store{}
	err := s.Init(map[string]string{"type": "postgresql", "table": "geo; DROP TABLE users"})
	assert.Error(t, err)
}
