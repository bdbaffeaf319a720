// Package session holds the signed-in user state shared by all services.
//
// A session is created on sign-in, replaced only by a profile update and
// removed on sign-out. Everything else reads it through the accessors.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

type Profile struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

type Session struct {
	id        string
	userID    string
	email     string
	role      auth.Role
	profile   Profile
	createdAt time.Time
}

func (s *Session) ID() string           { return s.id }
func (s *Session) UserID() string       { return s.userID }
func (s *Session) Email() string        { return s.email }
func (s *Session) Role() auth.Role      { return s.role }
func (s *Session) Profile() Profile     { return s.profile }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) IsAdmin() bool        { return s.role == auth.RoleAdmin }

// View is the JSON shape of a session returned to clients.
type View struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) View() View {
	return View{UserID: s.userID, Email: s.email, Role: s.role, Profile: s.profile, CreatedAt: s.createdAt}
}

// New builds a session value outside a store, for tests and token checks.
func New(id, userID, email string, role auth.Role, p Profile) *Session {
	return &Session{id: id, userID: userID, email: email, role: role, profile: p, createdAt: time.Now().UTC()}
}

type record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) record() record {
	return record{ID: s.id, UserID: s.userID, Email: s.email, Role: s.role, Profile: s.profile, CreatedAt: s.createdAt}
}

func (r record) session() *Session {
	return &Session{id: r.ID, userID: r.UserID, email: r.Email, role: r.Role, profile: r.Profile, createdAt: r.CreatedAt}
}

type Store interface {
	Create(ctx context.Context, userID, email string, role auth.Role, p Profile) (*Session, error)
	// Get returns nil, nil when the session does not exist or expired.
	Get(ctx context.Context, id string) (*Session, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func key(id string) string { return "session:" + id }

func (s *redisStore) Create(ctx context.Context, userID, email string, role auth.Role, p Profile) (*Session, error) {
	sess := New(uuid.NewString(), userID, email, role, p)
	b, err := json.Marshal(sess.record())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.rdb.Set(ctx, key(sess.id), b, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return r.session(), nil
}

func (s *redisStore) UpdateProfile(ctx context.Context, id string, p Profile) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	sess.profile = p
	b, err := json.Marshal(sess.record())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	// XX: a session deleted meanwhile stays deleted.
	ok, err := s.rdb.SetArgs(ctx, key(id), b, redis.SetArgs{Mode: "XX", KeepTTL: true}).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if ok != "OK" {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.rdb.Del(ctx, key(id)).Err()
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the auth middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
