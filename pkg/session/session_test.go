package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, time.Hour)

	s, err := store.Create(ctx, "u1", "ada@example.com", auth.RoleAdmin, Profile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID() == "" || !s.IsAdmin() {
		t.Fatalf("Create returned %+v", s.View())
	}

	got, err := store.Get(ctx, s.ID())
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.UserID() != "u1" || got.Profile().FullName != "Ada" {
		t.Errorf("Get = %+v", got.View())
	}

	upd, err := store.UpdateProfile(ctx, s.ID(), Profile{FullName: "Ada L.", RollNumber: "R-7"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if upd.Profile().RollNumber != "R-7" || upd.Role() != auth.RoleAdmin {
		t.Errorf("UpdateProfile = %+v", upd.View())
	}

	if err := store.Delete(ctx, s.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := store.Get(ctx, s.ID()); err != nil || got != nil {
		t.Errorf("Get after Delete = %v, %v; want nil, nil", got, err)
	}
}

func TestUpdateProfileKeepsExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, time.Minute)

	s, _ := store.Create(ctx, "u1", "a@example.com", auth.RoleStudent, Profile{})
	mr.FastForward(40 * time.Second)
	if _, err := store.UpdateProfile(ctx, s.ID(), Profile{FullName: "A"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	mr.FastForward(30 * time.Second)

	if got, _ := store.Get(ctx, s.ID()); got != nil {
		t.Error("session outlived its original TTL after a profile update")
	}
}

func TestUpdateProfileMissing(t *testing.T) {
	store, _ := newStore(t, time.Minute)
	_, err := store.UpdateProfile(context.Background(), "nope", Profile{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on empty context reported a session")
	}
	s := New("sid", "u1", "e", auth.RoleStudent, Profile{})
	got, ok := FromContext(NewContext(context.Background(), s))
	if !ok || got.ID() != "sid" {
		t.Errorf("FromContext = %v, %v", got, ok)
	}
}
