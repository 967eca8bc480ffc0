package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/profile-service/internal/cache"
	"github.com/iliyamo/profile-service/internal/logging"
	"github.com/iliyamo/profile-service/internal/service/servicetest"
)

func newMiniStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisStore(rdb), mr
}

type (
	fakeAccounts = servicetest.MemoryAccounts
	fakeProfiles = servicetest.MemoryProfiles
)

var (
	newFakeAccounts = servicetest.NewMemoryAccounts
	newFakeProfiles = servicetest.NewMemoryProfiles
)

// recordingNotifier captures every passcode handed to it.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) NotifyOTP(_ context.Context, email, otp string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, email+"="+otp)
	return n.err
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// brokenCache fails every operation.
type brokenCache struct{}

var errCacheDown = errors.New("connection refused")

func (brokenCache) SetWithTTL(context.Context, string, string, time.Duration) error {
	return errors.Join(cache.ErrUnavailable, errCacheDown)
}

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.Join(cache.ErrUnavailable, errCacheDown)
}

func (brokenCache) Delete(context.Context, string) (int64, error) {
	return 0, errors.Join(cache.ErrUnavailable, errCacheDown)
}

var testLog = logging.Discard()

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
