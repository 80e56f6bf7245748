package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"classroll/internal/ledger"
)

// DefaultPrefix namespaces archive keys.
const DefaultPrefix = "classroll:snapshots"

// Redis stores snapshot bodies under <prefix>:data:<id>, entry metadata in
// the <prefix>:meta hash and a creation-time index in the <prefix>:index
// sorted set.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis builds a Redis-backed archive.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) dataKey(id string) string { return r.prefix + ":data:" + id }
func (r *Redis) metaKey() string          { return r.prefix + ":meta" }
func (r *Redis) indexKey() string         { return r.prefix + ":index" }

// Save writes the snapshot body, its metadata and its index entry in one transaction.
func (r *Redis) Save(ctx context.Context, snap ledger.Snapshot) (Entry, error) {
	e := newEntry(snap)
	body, err := json.Marshal(snap)
	if err != nil {
		return Entry{}, fmt.Errorf("encode snapshot: %w", err)
	}
	meta, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encode entry: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.dataKey(e.ID), body, 0)
		p.HSet(ctx, r.metaKey(), e.ID, meta)
		p.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(e.CreatedAt.UnixNano()), Member: e.ID})
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Get returns the snapshot stored under id or ErrNotFound.
func (r *Redis) Get(ctx context.Context, id string) (ledger.Snapshot, error) {
	body, err := r.client.Get(ctx, r.dataKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ledger.Snapshot{}, ErrNotFound
		}
		return ledger.Snapshot{}, err
	}
	var snap ledger.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, nil
}

// List returns entries newest first.
func (r *Redis) List(ctx context.Context, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	metas, err := r.client.HMGet(ctx, r.metaKey(), ids...).Result()
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		s, ok := m.(string)
		if !ok {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
