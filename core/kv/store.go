// Package kv is the opaque key-value service the bot persists everything in.
// Drivers store raw bytes; records written by this repository are JSON.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Store is the minimal contract every driver implements.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetNX writes value only when key is absent and reports whether it wrote.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	// Prefix is prepended to every key, e.g. "likebot:".
	Prefix string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// Config selects and configures a driver.
type Config struct {
	Driver string      `yaml:"driver" envconfig:"STORE_DRIVER"`
	Redis  RedisConfig `yaml:"redis"`
}

// Normalize lowercases the driver name, defaults it to memory and validates driver settings.
func (c *Config) Normalize() error {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		d = DriverMemory
	}
	switch d {
	case DriverMemory, DriverPostgres:
	case DriverRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("store.redis.addr is required when store.driver is 'redis'")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("store.redis.db must be >= 0")
		}
	default:
		return fmt.Errorf("invalid store.driver %q; allowed: memory, redis, postgres", c.Driver)
	}
	c.Driver = d
	return nil
}

// Namespace returns the key segment before the first colon, used as a low-cardinality log field.
func Namespace(key string) string {
	ns, _, _ := strings.Cut(key, ":")
	return ns
}
