package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists cart snapshots keyed by cart ID. Load returns an empty
// snapshot for unknown or unreadable payloads so a broken cart never blocks
// the storefront.
type Store interface {
	Load(ctx context.Context, id string) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps cart snapshots in Redis with a sliding TTL.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func cartKey(id string) string {
	return "catalog_cart:" + id
}

// Load fetches the snapshot for id. Missing keys and corrupt payloads both
// yield an empty cart.
func (s *RedisStore) Load(ctx context.Context, id string) (Snapshot, error) {
	empty := Snapshot{ID: id, Lines: []Line{}}
	data, err := s.Client.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return empty, nil
		}
		return empty, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return empty, nil
	}
	snap.ID = id
	if snap.Lines == nil {
		snap.Lines = []Line{}
	}
	return snap, nil
}

// Save writes the snapshot and refreshes the TTL.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, cartKey(snap.ID), data, s.TTL).Err()
}

// Delete removes the snapshot.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, cartKey(id)).Err()
}
