package redlock

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewRedisStore(client), mr
}

// setupRedis connects to a real Redis server or skips the test.
func setupRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis is not available: %v", err)
	}

	return client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set if absent", func(t *testing.T) {
		s, mr := newRedisStore(t)

		ok, err := s.SetIfAbsent(ctx, "k", "tok-A", 1500*time.Millisecond)
		if err != nil || !ok {
			t.Fatalf("first set: ok %v err %v", ok, err)
		}
		if got, _ := mr.Get("k"); got != "tok-A" {
			t.Fatalf("stored %q, want tok-A", got)
		}
		if ttl := mr.TTL("k"); ttl != 1500*time.Millisecond {
			t.Fatalf("ttl = %v, want 1.5s", ttl)
		}

		ok, err = s.SetIfAbsent(ctx, "k", "tok-B", time.Second)
		if err != nil || ok {
			t.Fatalf("second set: ok %v err %v", ok, err)
		}
		if got, _ := mr.Get("k"); got != "tok-A" {
			t.Fatalf("value overwritten with %q", got)
		}
	})

	t.Run("compare and delete", func(t *testing.T) {
		s, mr := newRedisStore(t)
		_ = mr.Set("k", "tok-A")

		ok, err := s.CompareAndDelete(ctx, "k", "tok-B")
		if err != nil || ok {
			t.Fatalf("foreign delete: ok %v err %v", ok, err)
		}
		if !mr.Exists("k") {
			t.Fatal("key deleted by a foreign token")
		}

		ok, err = s.CompareAndDelete(ctx, "k", "tok-A")
		if err != nil || !ok {
			t.Fatalf("owner delete: ok %v err %v", ok, err)
		}
		if mr.Exists("k") {
			t.Fatal("key still present")
		}

		ok, err = s.CompareAndDelete(ctx, "k", "tok-A")
		if err != nil || ok {
			t.Fatalf("delete of missing key: ok %v err %v", ok, err)
		}
	})

	t.Run("server unavailable", func(t *testing.T) {
		s, mr := newRedisStore(t)
		mr.Close()

		if _, err := s.SetIfAbsent(ctx, "k", "v", time.Second); err == nil {
			t.Fatal("expected error from closed server")
		}
		if _, err := s.CompareAndDelete(ctx, "k", "v"); err == nil {
			t.Fatal("expected error from closed server")
		}
	})

	t.Run("wrong key type", func(t *testing.T) {
		s, mr := newRedisStore(t)
		mr.HSet("k", "owner", "tok-A")

		if _, err := s.CompareAndDelete(ctx, "k", "tok-A"); err == nil {
			t.Fatal("expected WRONGTYPE error")
		}
	})
}

func TestCustodianRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("scenario", func(t *testing.T) {
		s, _ := newRedisStore(t)
		c := newTestCustodian(s)

		lockA, err := c.Acquire(ctx, "inventory-42", 60*time.Second, "tok-A")
		if err != nil || lockA == nil || lockA.Token() != "tok-A" {
			t.Fatalf("acquire A: lock %v err %v", lockA, err)
		}
		if lockB, err := c.Acquire(ctx, "inventory-42", 60*time.Second, "tok-B"); err != nil || lockB != nil {
			t.Fatalf("acquire B while held: lock %v err %v", lockB, err)
		}
		if ok, err := c.Release(ctx, lockA); err != nil || !ok {
			t.Fatalf("release A: ok %v err %v", ok, err)
		}
		lockB, err := c.Acquire(ctx, "inventory-42", 60*time.Second, "tok-B")
		if err != nil || lockB == nil || lockB.Token() != "tok-B" {
			t.Fatalf("acquire B: lock %v err %v", lockB, err)
		}
	})

	t.Run("expired lock is not released by its former owner", func(t *testing.T) {
		s, mr := newRedisStore(t)
		c := newTestCustodian(s)

		old, err := c.Acquire(ctx, "resource", time.Second, "")
		if err != nil || old == nil {
			t.Fatalf("acquire: lock %v err %v", old, err)
		}
		mr.FastForward(2 * time.Second)

		current, err := c.Acquire(ctx, "resource", time.Minute, "")
		if err != nil || current == nil {
			t.Fatalf("acquire after expiry: lock %v err %v", current, err)
		}
		if ok, err := c.Release(ctx, old); err != nil || ok {
			t.Fatalf("stale release: ok %v err %v", ok, err)
		}
		if got, _ := mr.Get("resource"); got != current.Token() {
			t.Fatal("stale release removed the current owner")
		}
	})

	t.Run("spin waits for expiry", func(t *testing.T) {
		s, mr := newRedisStore(t)
		sched := &fastForwardScheduler{mr: mr}
		c := newTestCustodian(s, WithScheduler(sched))

		if _, err := c.Acquire(ctx, "resource", 3*time.Second, "holder"); err != nil {
			t.Fatal(err)
		}
		lock, err := c.Spin(ctx, 7, time.Second, "resource", 10*time.Second, "hopeful")
		if err != nil || lock == nil || lock.Token() != "hopeful" {
			t.Fatalf("spin: lock %v err %v", lock, err)
		}
		if sched.waits != 3 {
			t.Fatalf("waited %d times, want 3", sched.waits)
		}
	})

	t.Run("store failure is not contention", func(t *testing.T) {
		s, mr := newRedisStore(t)
		c := newTestCustodian(s)
		mr.Close()

		lock, err := c.Acquire(ctx, "resource", time.Second, "")
		if lock != nil || !errors.Is(err, ErrStore) {
			t.Fatalf("expected store error, got (%v, %v)", lock, err)
		}
	})

	t.Run("concurrent acquires", func(t *testing.T) {
		s, _ := newRedisStore(t)
		c := newTestCustodian(s)

		var winners atomic.Int32
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < 20; i++ {
			g.Go(func() error {
				lock, err := c.Acquire(gctx, "contended", time.Minute, "")
				if lock != nil {
					winners.Add(1)
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
		if n := winners.Load(); n != 1 {
			t.Fatalf("%d goroutines acquired the lock, want 1", n)
		}
	})
}

func TestCustodianRedisLive(t *testing.T) {
	redisClient := setupRedis(t)
	defer redisClient.Close()

	c := newTestCustodian(NewRedisStore(redisClient))
	ctx := context.Background()

	lock1, err := c.Acquire(ctx, "redlock-test-live", 5*time.Second, "")
	if err != nil || lock1 == nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	lock2, err := c.Acquire(ctx, "redlock-test-live", 5*time.Second, "")
	if err != nil || lock2 != nil {
		t.Fatalf("Should not acquire second lock: %v", err)
	}
	ok, err := c.Release(ctx, lock1)
	if err != nil || !ok {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

// fastForwardScheduler advances the miniredis clock instead of sleeping.
type fastForwardScheduler struct {
	mr    *miniredis.Miniredis
	waits int
}

func (s *fastForwardScheduler) After(d time.Duration) <-chan time.Time {
	s.waits++
	s.mr.FastForward(d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}
