package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisDocuments keeps each collection in one hash ("prefix:collection")
// with record ids as fields.
type RedisDocuments struct {
	Client *redis.Client
	prefix string
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr, prefix string) *RedisDocuments {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &RedisDocuments{Client: client, prefix: prefix}
}

// Close closes the client.
func (r *RedisDocuments) Close() error { return r.Client.Close() }

func (r *RedisDocuments) key(collection string) string {
	if r.prefix == "" {
		return collection
	}
	return r.prefix + ":" + collection
}

func (r *RedisDocuments) Get(ctx context.Context, path string) ([]byte, error) {
	col, id, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	b, err := r.Client.HGet(ctx, r.key(col), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (r *RedisDocuments) List(ctx context.Context, collection string) (map[string][]byte, error) {
	all, err := r.Client.HGetAll(ctx, r.key(collection)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(all))
	for id, body := range all {
		out[id] = []byte(body)
	}
	return out, nil
}

func (r *RedisDocuments) Set(ctx context.Context, path string, doc []byte) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	return r.Client.HSet(ctx, r.key(col), id, doc).Err()
}

func (r *RedisDocuments) Update(ctx context.Context, path string, fields map[string]any) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	key := r.key(col)
	return r.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, id).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		merged, err := mergeFields(cur, fields)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, merged)
			return nil
		})
		return err
	}, key)
}

func (r *RedisDocuments) Push(ctx context.Context, collection string, doc []byte) (string, error) {
	id := uuid.NewString()
	if err := r.Client.HSet(ctx, r.key(collection), id, doc).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// casScript compares and swaps a single hash field atomically.
// ARGV: field, has-old flag, old body, delete flag, next body.
var casScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if ARGV[2] == '1' then
	if not cur or cur ~= ARGV[3] then return 0 end
elseif cur then
	return 0
end
if ARGV[4] == '1' then
	redis.call('HDEL', KEYS[1], ARGV[1])
else
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[5])
end
return 1
`)

func (r *RedisDocuments) CompareAndSwap(ctx context.Context, path string, old, next []byte) (bool, error) {
	col, id, err := splitPath(path)
	if err != nil {
		return false, err
	}
	n, err := casScript.Run(ctx, r.Client, []string{r.key(col)},
		id, flag(old != nil), old, flag(next == nil), next).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (r *RedisDocuments) Delete(ctx context.Context, path string) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	return r.Client.HDel(ctx, r.key(col), id).Err()
}

func (r *RedisDocuments) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
