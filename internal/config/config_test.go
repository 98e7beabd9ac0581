package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, int64(200), c.Payroll)
	assert.Equal(t, int64(10), c.InterestDivisor)
	assert.Equal(t, int64(200), c.Accounts["345"])
	assert.Len(t, c.Accounts, 4)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 2
payroll: 500
indexDir: /tmp/idx
accounts:
  "900": 10
`), 0o644))

	v, err := New(path)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, int64(500), c.Payroll)
	assert.Equal(t, "/tmp/idx", c.IndexDir)
	assert.Equal(t, int64(10), c.Accounts["900"])
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BANKPOOL_WORKERS", "7")

	v, err := New("")
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Workers)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"zero workers": func(c *Config) { c.Workers = 0 },
		"zero payroll": func(c *Config) { c.Payroll = 0 },
		"zero divisor": func(c *Config) { c.InterestDivisor = 0 },
		"no index dir": func(c *Config) { c.IndexDir = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Config{Workers: 1, Payroll: 1, InterestDivisor: 1, IndexDir: "x"}
			require.NoError(t, c.Validate())
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
