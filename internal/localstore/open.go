package localstore

import (
	"context"
	"fmt"
	"time"
)

type Options struct {
	Driver string // memory, sqlite, postgres, redis
	DSN    string
	Redis  RedisConfig

	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Open builds the store selected by opts.Driver. SQL drivers must already be
// registered by the caller.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		return OpenSQL(ctx, SQLConfig{
			Driver:       opts.Driver,
			DSN:          opts.DSN,
			PingAttempts: opts.ConnectAttempts,
			PingDelay:    opts.ConnectDelay,
		})
	case "redis":
		return OpenRedis(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("unknown local store driver %q", opts.Driver)
	}
}
