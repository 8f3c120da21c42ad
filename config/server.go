package config

import (
	"sync"

	"github.com/spf13/viper"
)

// ServerConfiguration defines the HTTP server settings
type ServerConfiguration struct {
	Debug                    bool
	Host                     string
	Port                     string
	Timezone                 string
	ServerURL                string
	Environment              string
	SentryDSN                string
	AllowedHosts             string
	RateLimitUnauthenticated int
	RateLimitAuthenticated   int
}

var (
	serverDefaultsOnce sync.Once
	serverConfigOnce   sync.Once
	serverConfig       *ServerConfiguration
)

// initServerDefaults sets the default values for server configuration.
// This is called once during initialization to avoid concurrent map writes.
func initServerDefaults() {
	serverDefaultsOnce.Do(func() {
		viper.SetDefault("DEBUG", false)
		viper.SetDefault("SERVER_HOST", "0.0.0.0")
		viper.SetDefault("SERVER_PORT", "8000")
		viper.SetDefault("SERVER_TIMEZONE", "UTC")
		viper.SetDefault("SERVER_URL", "http://localhost:8000")
		viper.SetDefault("ENVIRONMENT", "sandbox")
		viper.SetDefault("ALLOWED_HOSTS", "*")
		viper.SetDefault("RATE_LIMIT_UNAUTHENTICATED", 5)
		viper.SetDefault("RATE_LIMIT_AUTHENTICATED", 50)
	})
}

// ServerConfig returns the server configurations.
// The config is initialized once and cached to avoid concurrent map writes.
func ServerConfig() *ServerConfiguration {
	initServerDefaults()

	serverConfigOnce.Do(func() {
		serverConfig = &ServerConfiguration{
			Debug:                    viper.GetBool("DEBUG"),
			Host:                     viper.GetString("SERVER_HOST"),
			Port:                     viper.GetString("SERVER_PORT"),
			Timezone:                 viper.GetString("SERVER_TIMEZONE"),
			ServerURL:                viper.GetString("SERVER_URL"),
			Environment:              viper.GetString("ENVIRONMENT"),
			SentryDSN:                viper.GetString("SENTRY_DSN"),
			AllowedHosts:             viper.GetString("ALLOWED_HOSTS"),
			RateLimitUnauthenticated: viper.GetInt("RATE_LIMIT_UNAUTHENTICATED"),
			RateLimitAuthenticated:   viper.GetInt("RATE_LIMIT_AUTHENTICATED"),
		}
	})

	return serverConfig
}
