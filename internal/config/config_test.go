package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 168*time.Hour, cfg.RecentWindow)
	assert.Equal(t, "crushboard", cfg.MongoDatabase)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MONGO")
	t.Setenv("PORT", "9000")
	t.Setenv("SITE_URL", "https://crush.example/")
	t.Setenv("RECENT_WINDOW", "48h")
	t.Setenv("TIMEZONE", "Europe/Paris")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 48*time.Hour, cfg.RecentWindow)
	assert.Equal(t, "https://crush.example/?confessionId=abc", cfg.ShareURL("abc"))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestValidate(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.Validate())

	cfg.StoreDriver = "redis"
	assert.ErrorContains(t, cfg.Validate(), "unsupported STORE_DRIVER")

	cfg = NewForTesting()
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = NewForTesting()
	cfg.RecentWindow = 0
	assert.Error(t, cfg.Validate())

	cfg = NewForTesting()
	cfg.WriteBurst = 0
	assert.Error(t, cfg.Validate())
}
