// Package config loads bankctl settings from defaults, an optional config
// file and BANKPOOL_ environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "BANKPOOL"

type Config struct {
	Workers         int
	Payroll         int64
	InterestDivisor int64
	IndexDir        string
	MetricsAddr     string
	LockOSThread    bool
	PinWorkers      bool
	// Accounts are written to the index by the seed command when absent.
	Accounts map[string]int64
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workers", 4)
	v.SetDefault("payroll", 200)
	v.SetDefault("interestDivisor", 10)
	v.SetDefault("indexDir", "./bank.index")
	v.SetDefault("metricsAddr", "")
	v.SetDefault("lockOSThread", false)
	v.SetDefault("pinWorkers", false)
	v.SetDefault("accounts", map[string]int64{
		"123": 0,
		"234": 0,
		"345": 200,
		"456": 200,
	})
}

// New returns a viper instance with defaults and environment binding.
// A non-empty path is read as the config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return v, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.Payroll <= 0 {
		return fmt.Errorf("config: payroll must be positive, got %d", c.Payroll)
	}
	if c.InterestDivisor <= 0 {
		return fmt.Errorf("config: interestDivisor must be positive, got %d", c.InterestDivisor)
	}
	if c.IndexDir == "" {
		return fmt.Errorf("config: indexDir is required")
	}
	return nil
}
