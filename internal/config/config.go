// Package config resolves the kernel settings from environment
// variables with sensible defaults. Keys use dotted names; the
// environment binding is the KERNEL_ prefix with dots replaced by
// underscores, e.g. app.mongodb.dsn <- KERNEL_APP_MONGODB_DSN.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings is the resolved configuration of one kernel process.
type Settings struct {
	MongoDSN          string
	MongoDBName       string
	HTTPAddr          string
	PrometheusEnabled bool
	PrometheusPort    int
	LogLevel          string
	LogFile           string
	MaxRetries        int
	BackoffFactor     float64
}

// Load reads the settings from the environment.
func Load() (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("KERNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.mongodb.dsn", "mongodb://db:27017/")
	v.SetDefault("app.mongodb.dbname", "document-store")
	v.SetDefault("app.http.addr", ":6543")
	v.SetDefault("app.prometheus.enabled", false)
	v.SetDefault("app.prometheus.port", 8087)
	v.SetDefault("app.logging.level", "info")
	v.SetDefault("app.logging.file", "")
	v.SetDefault("lib.max_retries", 4)
	v.SetDefault("lib.backoff_factor", 1.2)

	// Unprefixed alias kept for container setups that export the DSN
	// without the KERNEL_ prefix.
	if err := v.BindEnv("app.mongodb.dsn", "KERNEL_APP_MONGODB_DSN", "APP_MONGODB_DSN"); err != nil {
		return Settings{}, err
	}

	return Settings{
		MongoDSN:          v.GetString("app.mongodb.dsn"),
		MongoDBName:       v.GetString("app.mongodb.dbname"),
		HTTPAddr:          v.GetString("app.http.addr"),
		PrometheusEnabled: v.GetBool("app.prometheus.enabled"),
		PrometheusPort:    v.GetInt("app.prometheus.port"),
		LogLevel:          v.GetString("app.logging.level"),
		LogFile:           v.GetString("app.logging.file"),
		MaxRetries:        v.GetInt("lib.max_retries"),
		BackoffFactor:     v.GetFloat64("lib.backoff_factor"),
	}, nil
}
