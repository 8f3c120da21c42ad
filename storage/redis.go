package storage

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/boring-ventures/peyo-onramp/config"
)

// RedisClient holds the redis connection, nil when redis is not configured
var RedisClient *redis.Client

// InitializeRedis connects to redis and verifies the connection
func InitializeRedis() error {
	opts, err := redis.ParseURL(config.RedisConfig())
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return err
	}

	RedisClient = client
	return nil
}
