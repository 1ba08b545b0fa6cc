package cache

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const opTimeout = 3 * time.Second

// ServerInfo is a snapshot of cache server metrics.
type ServerInfo struct {
	ConnectedClients int64  `json:"connected_clients"`
	UsedMemoryHuman  string `json:"used_memory_human"`
	UptimeInSeconds  int64  `json:"uptime_in_seconds"`
}

// RedisCache is a best-effort JSON cache and counter store.
// A nil *RedisCache behaves like an unreachable cache.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache builds a cache from a redis:// URL or a host:port address.
func NewRedisCache(target, password string) (*RedisCache, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("redis address is required")
	}
	var opts *redis.Options
	if strings.Contains(target, "://") {
		parsed, err := redis.ParseURL(target)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: target}
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 2 * time.Second
	opts.MaxRetries = 1
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Client exposes the underlying client for components sharing the connection.
func (c *RedisCache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// GetJSON decodes the value at key into dst. A missing key and an
// unreachable server both report false; err is set only for the latter
// or for undecodable data.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key with ttl.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// Incr atomically increments key and returns the new value.
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	if c == nil {
		return 0, errors.New("cache not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Incr(ctx, key).Result()
}

// Ping checks the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("cache not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Info reads the INFO report of the server.
func (c *RedisCache) Info(ctx context.Context) (ServerInfo, error) {
	if c == nil {
		return ServerInfo{}, errors.New("cache not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	raw, err := c.client.Info(ctx).Result()
	if err != nil {
		return ServerInfo{}, err
	}
	return parseInfo(raw), nil
}

// Close releases the client.
func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func parseInfo(raw string) ServerInfo {
	info := ServerInfo{UsedMemoryHuman: "0B"}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "connected_clients":
			info.ConnectedClients, _ = strconv.ParseInt(value, 10, 64)
		case "used_memory_human":
			info.UsedMemoryHuman = value
		case "uptime_in_seconds":
			info.UptimeInSeconds, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	return info
}
