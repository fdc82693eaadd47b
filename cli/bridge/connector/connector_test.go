package connector

import (
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSourceName(t *testing.T) {
	log.SetOutput(io.Discard)

	tests := []struct {
		name     string
		settings map[string]string
		expected string
	}{
		{
			name:     "PostgreSQL defaults",
			settings: map[string]string{"type": "postgresql", "password": "pw"},
			expected: "dbname=tracksync host=localhost port=5432 user=tracksync password=pw sslmode=disable",
		},
		{
			name:     "MySQL from type",
			settings: map[string]string{"type": "mysql", "host": "db", "user": "root", "password": "pw", "database": "geo"},
			expected: "root:pw@tcp(db:3306)/geo?parseTime=true",
		},
		{
			name:     "Explicit driver wins",
			settings: map[string]string{"type": "postgresql", "driver": "mysql", "port": "3307"},
			expected: "tracksync:@tcp(localhost:3307)/tracksync?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Connector{}
			c.FillSettings(tt.settings)
			dsn, err := c.DataSourceName()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dsn)
		})
	}
}

func TestUnknownDriver(t *testing.T) {
	log.SetOutput(io.Discard)

	c := &Connector{}
	err := c.Connect(map[string]string{"driver": "sqlite"})
	assert.Error(t, err)
}
