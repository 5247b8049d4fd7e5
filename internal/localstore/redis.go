package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in a hash (id -> body) plus a sorted set
// holding insertion order.
type RedisStore struct {
	Client *redis.Client
	prefix string

	mu      sync.Mutex
	lastSeq int64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.Prefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{Client: client, prefix: prefix}
}

func (r *RedisStore) docsKey(collection string) string {
	return fmt.Sprintf("%s:%s:docs", r.prefix, collection)
}

func (r *RedisStore) orderKey(collection string) string {
	return fmt.Sprintf("%s:%s:order", r.prefix, collection)
}

func (r *RedisStore) All(ctx context.Context, collection string) ([]json.RawMessage, error) {
	ids, err := r.Client.ZRange(ctx, r.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []json.RawMessage{}, nil
	}

	vals, err := r.Client.HMGet(ctx, r.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, json.RawMessage(s))
		}
	}
	return out, nil
}

func (r *RedisStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	val, err := r.Client.HGet(ctx, r.docsKey(collection), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(val), nil
}

func (r *RedisStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	seq := r.nextSeq()
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docsKey(collection), id, string(doc))
		pipe.ZAddNX(ctx, r.orderKey(collection), redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	return err
}

func (r *RedisStore) Delete(ctx context.Context, collection, id string) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.docsKey(collection), id)
		pipe.ZRem(ctx, r.orderKey(collection), id)
		return nil
	})
	return err
}

func (r *RedisStore) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.Client.HLen(ctx, r.docsKey(collection)).Result()
	return int(n), err
}

func (r *RedisStore) Close() error { return r.Client.Close() }

// nextSeq stays well inside float64's exact integer range.
func (r *RedisStore) nextSeq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := time.Now().UnixMicro()
	if seq <= r.lastSeq {
		seq = r.lastSeq + 1
	}
	r.lastSeq = seq
	return seq
}
