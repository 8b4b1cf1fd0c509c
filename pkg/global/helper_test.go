package global

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("CATALOG_API_KEY", "books-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "books-key", cfg.CatalogAPIKey)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_MongoRequiresURI(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestGetDurationOrDefault_Invalid(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")
	assert.Equal(t, 3*time.Second, GetDurationOrDefault("STORE_TIMEOUT", 3*time.Second))

	t.Setenv("STORE_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, GetDurationOrDefault("STORE_TIMEOUT", 3*time.Second))
}
