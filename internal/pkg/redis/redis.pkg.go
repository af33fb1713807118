package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mobile-banking-core/internal/pkg/logger"
	"time"

	_redis "github.com/redis/go-redis/v9"
)

func Setup(ctx context.Context, config *Config) (*Client, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	r := &Client{
		cancel: cancel,
		ctx:    clientCtx,
		config: config,
	}

	r.Client = _redis.NewClient(&_redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Username: config.Username,
		Password: config.Password,
		PoolSize: config.PoolSize,
	})

	if err := r.Client.Ping(clientCtx).Err(); err != nil {
		cancel()
		_ = r.Client.Close()
		logger.Error.Println(err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	go r.healthMonitor()

	return r, nil
}

// healthMonitor pings once per second and logs when the server goes away
// and comes back. go-redis redials pooled connections on its own.
func (r *Client) healthMonitor() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lost := 0
	for {
		select {
		case <-r.ctx.Done():
			logger.Debug.Println("redis health monitor stopped")
			return
		case <-ticker.C:
			err := r.Client.Ping(r.ctx).Err()
			switch {
			case err != nil && r.ctx.Err() == nil:
				lost++
				if lost == 1 || lost%30 == 0 {
					logger.Warning.Printf("redis unreachable (%d checks): %v", lost, err)
				}
			case err == nil && lost > 0:
				logger.Info.Printf("redis reachable again after %d failed checks", lost)
				lost = 0
			}
		}
	}
}

// Close stops the reconnect handler and closes the pool.
func (r *Client) Close() error {
	r.cancel()
	return r.Client.Close()
}

// Set stores the JSON encoding of value.
func (r *Client) Set(key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err = r.Client.Set(r.ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// SetNX stores value only when key is absent and reports whether it did.
func (r *Client) SetNX(key string, value any, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	stored, err := r.Client.SetNX(r.ctx, key, data, expiration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx key %s: %w", key, err)
	}
	return stored, nil
}

// Get returns the raw value, or "" when the key does not exist.
func (r *Client) Get(key string) (string, error) {
	result, err := r.Client.Get(r.ctx, key).Result()
	if err != nil {
		if errors.Is(err, NilType) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return result, nil
}

func (r *Client) Del(key string) error {
	if err := r.Client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (r *Client) Expire(key string, expiration time.Duration) error {
	if err := r.Client.Expire(r.ctx, key, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set expiration on key %s: %w", key, err)
	}
	return nil
}

func (r *Client) Ping() error {
	return r.Client.Ping(r.ctx).Err()
}
