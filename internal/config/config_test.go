package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendMemory, cfg.Layouts.Backend)
	assert.Equal(t, BackendMemory, cfg.Records.Backend)
	assert.Equal(t, "catalog", cfg.Catalog.Dir)
	assert.Equal(t, 5*time.Second, cfg.Live.Interval)
	assert.Equal(t, 40, cfg.Server.RateLimit.Burst)
	assert.Equal(t, "viewgen", cfg.Theme.Name)
	assert.Equal(t, "/static", cfg.Theme.AssetPrefix)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viewgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  rate_limit:
    rps: 5
database:
  url: postgres://localhost/viewgen
layouts:
  backend: postgres
catalog:
  dir: /srv/catalog
  watch: true
live:
  interval: 2s
theme:
  variant: dark
  tokens:
    brand: "#123456"
`), 0o600))

	t.Setenv("VIEWGEN_SERVER_ADDR", ":9100")
	t.Setenv("VIEWGEN_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Server.RateLimit.RPS)
	assert.Equal(t, BackendPostgres, cfg.Layouts.Backend)
	assert.Equal(t, "/srv/catalog", cfg.Catalog.Dir)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 2*time.Second, cfg.Live.Interval)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "dark", cfg.Theme.Variant)
	assert.Equal(t, "#123456", cfg.Theme.Tokens["brand"])
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres layouts without database",
			cfg:  Config{Layouts: BackendConfig{BackendPostgres}, Records: BackendConfig{BackendMemory}, Log: LogConfig{Format: "json"}},
			want: "requires database.url",
		},
		{
			name: "redis layouts without addr",
			cfg:  Config{Layouts: BackendConfig{BackendRedis}, Records: BackendConfig{BackendMemory}, Log: LogConfig{Format: "json"}},
			want: "requires redis.addr",
		},
		{
			name: "unknown records backend",
			cfg:  Config{Layouts: BackendConfig{BackendMemory}, Records: BackendConfig{"mongo"}, Log: LogConfig{Format: "json"}},
			want: `unknown records.backend "mongo"`,
		},
		{
			name: "log format",
			cfg:  Config{Layouts: BackendConfig{BackendMemory}, Records: BackendConfig{BackendMemory}, Log: LogConfig{Format: "xml"}},
			want: "unknown log.format",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
