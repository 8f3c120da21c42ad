package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DatabaseConfiguration defines the database settings
type DatabaseConfiguration struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string
	SSLMode  string
}

// DBConfig returns the database DSN
func DBConfig() string {
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_NAME", "peyo_onramp")
	viper.SetDefault("DB_SSL_MODE", "disable")

	conf := DatabaseConfiguration{
		Host:     viper.GetString("DB_HOST"),
		Port:     viper.GetString("DB_PORT"),
		User:     viper.GetString("DB_USER"),
		Password: viper.GetString("DB_PASSWORD"),
		DbName:   viper.GetString("DB_NAME"),
		SSLMode:  viper.GetString("DB_SSL_MODE"),
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		conf.Host, conf.Port, conf.User, conf.Password, conf.DbName, conf.SSLMode,
	)
}

// RedisConfig returns the redis connection URL
func RedisConfig() string {
	viper.SetDefault("REDIS_URL", "redis://localhost:6379")
	return viper.GetString("REDIS_URL")
}
