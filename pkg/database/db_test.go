package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "")
	cfg := ConfigFromEnv()
	assert.Contains(t, cfg.DSN, "localhost:5432")
	assert.Equal(t, 5, cfg.MaxConns)

	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("DATABASE_MAX_CONNS", "12")
	cfg = ConfigFromEnv()
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN)
	assert.Equal(t, 12, cfg.MaxConns)

	t.Setenv("DATABASE_MAX_CONNS", "-3")
	assert.Equal(t, 5, ConfigFromEnv().MaxConns)
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'UTC'", quoteLiteral("UTC"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}
