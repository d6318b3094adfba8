package config

import (
	"strings"
	"time"

	"statusflow/persistence"

	"github.com/spf13/viper"
)

const EnvPrefix = "STATUSFLOW"

type Config struct {
	Database persistence.DatabaseConfig `mapstructure:"database"`
	Log      LogConfig                  `mapstructure:"log"`
	Cache    CacheConfig                `mapstructure:"cache"`
	Tracing  TracingConfig              `mapstructure:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	WorkflowTTL time.Duration `mapstructure:"workflowTTL"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"serviceName"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", persistence.DriverSqlite)
	v.SetDefault("database.args", "file:statusflow.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.workflowTTL", 5*time.Minute)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "statusflow")
}

// Load reads path when given, then overlays STATUSFLOW_* environment variables
// (e.g. STATUSFLOW_DATABASE_DRIVER).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}
