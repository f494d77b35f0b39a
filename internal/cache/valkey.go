package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Valkey is the remote cache backend, speaking the Redis protocol to a
// Valkey or Redis server. It is the production backend; all gateway state
// shared across replicas lives here.
type Valkey struct {
	client *redis.Client
}

// ValkeyOptions configures the remote backend connection.
type ValkeyOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewValkey connects to the Valkey server and verifies the connection with a
// ping before returning.
func NewValkey(ctx context.Context, opts ValkeyOptions) (*Valkey, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	return &Valkey{client: client}, nil
}

// GetRaw returns the bytes stored under key, or ErrCacheMiss.
func (v *Valkey) GetRaw(ctx context.Context, key string) ([]byte, error) {
	if v.client == nil {
		return nil, ErrNotConnected
	}

	data, err := v.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, &OperationError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// SetRaw stores value under key. With a TTL this issues SETEX so the expiry
// is set atomically with the value.
func (v *Valkey) SetRaw(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if v.client == nil {
		return ErrNotConnected
	}

	var err error
	if ttl > 0 {
		err = v.client.SetEx(ctx, key, value, ttl).Err()
	} else {
		err = v.client.Set(ctx, key, value, 0).Err()
	}
	if err != nil {
		return &OperationError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes key. Absent keys are a no-op.
func (v *Valkey) Delete(ctx context.Context, key string) error {
	if v.client == nil {
		return ErrNotConnected
	}

	if err := v.client.Del(ctx, key).Err(); err != nil {
		return &OperationError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists reports whether key is present.
func (v *Valkey) Exists(ctx context.Context, key string) (bool, error) {
	if v.client == nil {
		return false, ErrNotConnected
	}

	n, err := v.client.Exists(ctx, key).Result()
	if err != nil {
		return false, &OperationError{Op: "exists", Key: key, Err: err}
	}
	return n > 0, nil
}

// Flush clears the configured database only, never the whole server.
func (v *Valkey) Flush(ctx context.Context) error {
	if v.client == nil {
		return ErrNotConnected
	}

	if err := v.client.FlushDB(ctx).Err(); err != nil {
		return &OperationError{Op: "flush", Key: "", Err: err}
	}
	return nil
}

// Close closes the connection pool.
func (v *Valkey) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
