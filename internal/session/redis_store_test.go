package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"truststack/api/internal/store"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	sessions, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("create redis store: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })
	return sessions
}

func testUser(id string) store.User {
	return store.User{ID: id, DisplayName: "Priya", Email: id + "@example.com", Role: "member"}
}

func TestNewRedisStore(t *testing.T) {
	sessions := setupTestRedis(t)
	if err := sessions.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	sessions := setupTestRedis(t)
	ctx := context.Background()

	err := sessions.SaveRefreshSession(ctx, "hash-1", testUser("usr_1"), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	user, err := sessions.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if user.ID != "usr_1" || user.DisplayName != "Priya" || user.Email != "usr_1@example.com" || user.Role != "member" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("create redis store: %v", err)
	}
	defer sessions.Close()
	ctx := context.Background()

	if err := sessions.SaveRefreshSession(ctx, "hash-exp", testUser("usr_2"), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := sessions.LookupRefreshSession(ctx, "hash-exp"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for expired token, got %v", err)
	}
}

func TestSaveRejectsAlreadyExpired(t *testing.T) {
	sessions := setupTestRedis(t)
	err := sessions.SaveRefreshSession(context.Background(), "hash-past", testUser("usr_3"), time.Now().Add(-time.Minute))
	if err == nil {
		t.Fatal("expected error saving a session that is already expired")
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	sessions := setupTestRedis(t)
	ctx := context.Background()

	if err := sessions.SaveRefreshSession(ctx, "hash-rev", testUser("usr_4"), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if err := sessions.RevokeRefreshSession(ctx, "hash-rev"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := sessions.LookupRefreshSession(ctx, "hash-rev"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after revoke, got %v", err)
	}

	// Revoking an unknown token is a no-op.
	if err := sessions.RevokeRefreshSession(ctx, "hash-unknown"); err != nil {
		t.Fatalf("revoke of unknown token should not fail: %v", err)
	}
}

func TestSessionIsolation(t *testing.T) {
	sessions := setupTestRedis(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)

	if err := sessions.SaveRefreshSession(ctx, "hash-a", testUser("usr_a"), expiresAt); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := sessions.SaveRefreshSession(ctx, "hash-b", testUser("usr_b"), expiresAt); err != nil {
		t.Fatalf("save b: %v", err)
	}

	if err := sessions.RevokeRefreshSession(ctx, "hash-a"); err != nil {
		t.Fatalf("revoke a: %v", err)
	}

	if _, err := sessions.LookupRefreshSession(ctx, "hash-a"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected hash-a gone, got %v", err)
	}
	user, err := sessions.LookupRefreshSession(ctx, "hash-b")
	if err != nil {
		t.Fatalf("lookup b: %v", err)
	}
	if user.ID != "usr_b" {
		t.Fatalf("expected usr_b, got %s", user.ID)
	}
}
