package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pingTimeout  = 5 * time.Second
	ioTimeout    = 2 * time.Second
	minIdleConns = 2
)

// Options builds client options from addr, which may be host:port or a
// redis:// URL. A URL carries its own DB unless db is non-zero.
func Options(addr string, db int) (*redis.Options, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	if db != 0 {
		opts.DB = db
	}
	opts.MinIdleConns = minIdleConns
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	return opts, nil
}

// OpenRedis connects to the store backing idempotency records and public
// rate-limit windows.
func OpenRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	opts, err := Options(addr, db)
	if err != nil {
		return nil, err
	}
	r := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return r, nil
}
