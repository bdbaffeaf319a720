// Package station manages scan-station kiosks: unattended scanners bound to
// one event that authenticate with a key instead of an admin session.
package station

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidKey = errors.New("invalid station credentials")

type Station struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Label     string    `json:"label"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	KeyHash   string    `json:"key_hash,omitempty"`
}

type Repository interface {
	// Create returns the station and its key. The key is not stored and cannot be shown again.
	Create(ctx context.Context, eventID, label, createdBy string) (*Station, string, error)
	List(ctx context.Context, eventID string) ([]Station, error)
	Authenticate(ctx context.Context, id, key string) (*Station, error)
	Revoke(ctx context.Context, id string) error
}

type redisRepository struct {
	rdb    *redis.Client
	ttl    time.Duration
	params *argon2id.Params
}

// NewRedisRepository keeps stations in Redis; they expire after ttl.
func NewRedisRepository(rdb *redis.Client, ttl time.Duration) Repository {
	return &redisRepository{rdb: rdb, ttl: ttl, params: argon2id.DefaultParams}
}

func stationKey(id string) string       { return "station:" + id }
func eventStationsKey(id string) string { return "event:" + id + ":stations" }

func newKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (r *redisRepository) Create(ctx context.Context, eventID, label, createdBy string) (*Station, string, error) {
	key, err := newKey()
	if err != nil {
		return nil, "", fmt.Errorf("generate station key: %w", err)
	}
	hash, err := argon2id.CreateHash(key, r.params)
	if err != nil {
		return nil, "", fmt.Errorf("hash station key: %w", err)
	}

	now := time.Now().UTC()
	st := &Station{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Label:     label,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
		KeyHash:   hash,
	}
	b, err := json.Marshal(st)
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, stationKey(st.ID), b, r.ttl)
	pipe.SAdd(ctx, eventStationsKey(eventID), st.ID)
	pipe.Expire(ctx, eventStationsKey(eventID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, "", fmt.Errorf("store station: %w", err)
	}

	st.KeyHash = ""
	return st, key, nil
}

func (r *redisRepository) get(ctx context.Context, id string) (*Station, error) {
	b, err := r.rdb.Get(ctx, stationKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st Station
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *redisRepository) List(ctx context.Context, eventID string) ([]Station, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ids, err := r.rdb.SMembers(ctx, eventStationsKey(eventID)).Result()
	if err != nil {
		return nil, err
	}
	out := []Station{}
	for _, id := range ids {
		st, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if st == nil {
			// expired; drop the dangling index entry
			r.rdb.SRem(ctx, eventStationsKey(eventID), id)
			continue
		}
		st.KeyHash = ""
		out = append(out, *st)
	}
	return out, nil
}

func (r *redisRepository) Authenticate(ctx context.Context, id, key string) (*Station, error) {
	if id == "" || key == "" {
		return nil, ErrInvalidKey
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	st, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrInvalidKey
	}
	match, err := argon2id.ComparePasswordAndHash(key, st.KeyHash)
	if err != nil {
		return nil, fmt.Errorf("compare station key: %w", err)
	}
	if !match {
		return nil, ErrInvalidKey
	}
	st.KeyHash = ""
	return st, nil
}

func (r *redisRepository) Revoke(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	st, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, stationKey(id))
	pipe.SRem(ctx, eventStationsKey(st.EventID), id)
	_, err = pipe.Exec(ctx)
	return err
}
