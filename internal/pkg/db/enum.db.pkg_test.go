package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionOrderBy(t *testing.T) {
	assert.Equal(t, "created_at asc", ASC.OrderBy("created_at"))
	assert.Equal(t, "created_at desc", DESC.OrderBy("created_at"))
	assert.Equal(t, "created_at desc", DirectionEnum("sideways").OrderBy("created_at"))
}

func TestDialector(t *testing.T) {
	tests := []struct {
		driver DriverEnum
		name   string
		ok     bool
	}{
		{driver: POSTGRES, name: "postgres", ok: true},
		{driver: MYSQL, name: "mysql", ok: true},
		{driver: DriverEnum("sqlite"), ok: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.driver), func(t *testing.T) {
			cfg := &Config{Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "d", Driver: tt.driver}
			d, err := cfg.dialector()
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}
}
