package config

// This file defines the Redis client constructor. Redis holds passcodes,
// cached profile snapshots and rate-limit buckets. go-redis keeps a pool of
// connections and checks one out per command, so concurrent requests share
// the client without any application-level lock.

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes how to reach Redis.
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (used when host/port are not both set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//	REDIS_POOL_SIZE – maximum pooled connections (0 = go-redis default)
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
	PoolSize int    `yaml:"pool_size"`
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379"}
}

func (c *RedisConfig) applyEnv() {
	host := getenv("REDIS_HOST", "")
	port := getenv("REDIS_PORT", "")
	if host != "" && port != "" {
		c.Addr = host + ":" + port
	} else {
		c.Addr = getenv("REDIS_ADDR", c.Addr)
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	c.Password = getenv("REDIS_PASSWORD", c.Password)
	c.DB = envInt("REDIS_DB", c.DB)
	if tlsEnv := getenv("REDIS_TLS", ""); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		c.TLS = true
	}
	c.PoolSize = envInt("REDIS_POOL_SIZE", c.PoolSize)
}

// NewRedisClient builds a pooled client and pings the server with a short
// timeout. The client is returned even when the ping fails so the caller can
// decide whether to start degraded; every later command then reports the
// outage on its own.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
		PoolSize:  cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
