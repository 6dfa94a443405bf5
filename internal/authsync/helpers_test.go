package authsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var baseTime = time.Unix(1_760_000_000, 0)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: baseTime} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{"sub": "u-1", "email": "ana@example.com", "exp": exp.Unix()})
}

func testRecord(token string) Record {
	return Record{Token: token, Email: "ana@example.com", Name: "Ana", Role: "user", IsHost: true}
}

func putRecord(t *testing.T, store Store, rec Record) {
	t.Helper()
	raw, err := encodeRecord(rec)
	if err != nil {
		t.Fatalf("encode record: %v", err)
	}
	if err := store.Set(context.Background(), SessionKey, raw); err != nil {
		t.Fatalf("set record: %v", err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (m *MemoryStore) watcherCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

func (b *Bus) subscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}

// startRun runs s until the returned stop function is called and waits until
// it is watching store.
func startRun(t *testing.T, s *Synchronizer, store *MemoryStore) (stop func() error) {
	t.Helper()
	before := store.watcherCount()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	eventually(t, "synchronizer to watch storage", func() bool {
		return store.watcherCount() > before
	})

	return func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
			return nil
		}
	}
}
