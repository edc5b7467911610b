package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_DSN", "AMQP_URL", "REQUIRE_AVAILABLE", "SEED_DEMO"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "canteen.db", cfg.DBDSN)
	assert.Equal(t, "canteen.orders", cfg.EventsExchange)
	assert.False(t, cfg.RequireAvailable)
	assert.True(t, cfg.SeedDemo)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "PGX")
	t.Setenv("DB_DSN", "postgres://canteen@localhost/canteen")
	t.Setenv("REQUIRE_AVAILABLE", "true")
	t.Setenv("SEED_DEMO", "nope")
	cfg := Load()
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://canteen@localhost/canteen", cfg.DBDSN)
	assert.True(t, cfg.RequireAvailable)
	assert.True(t, cfg.SeedDemo, "unparseable value falls back to default")
}
