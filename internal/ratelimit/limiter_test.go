package ratelimit

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	l := New(Config{
		BlockDuration:   5 * time.Minute,
		CleanupInterval: time.Minute,
		StaleAfter:      time.Hour,
	}, testLogger())
	t.Cleanup(l.Shutdown)
	return l
}

func TestLimiter_BlockAfterLimit(t *testing.T) {
	l := newTestLimiter(t)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }

	// пять запросов в течение десяти секунд — все разрешены,
	// remaining убывает 4,3,2,1,0
	for i := 0; i < 5; i++ {
		now = start.Add(time.Duration(i*2) * time.Second)
		blocked, info := l.Check("1.2.3.4", 5, time.Minute)
		require.False(t, blocked, "request %d must be allowed", i+1)
		assert.Equal(t, 4-i, info.Remaining)
		assert.Equal(t, now.Add(time.Minute), info.ResetAt)
	}

	// шестой запрос упирается в лимит и включает блокировку
	now = start.Add(10 * time.Second)
	blocked, info := l.Check("1.2.3.4", 5, time.Minute)
	require.True(t, blocked)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 5*time.Minute, info.RetryAfter)

	// во время блокировки обращения не записываются и остаются запрещёнными
	now = start.Add(2 * time.Minute)
	blocked, info = l.Check("1.2.3.4", 5, time.Minute)
	require.True(t, blocked)
	assert.Equal(t, 3*time.Minute+10*time.Second, info.RetryAfter)

	// после истечения штрафного периода окно начинается заново
	now = start.Add(5*time.Minute + 11*time.Second)
	for i := 0; i < 5; i++ {
		blocked, info = l.Check("1.2.3.4", 5, time.Minute)
		require.False(t, blocked, "request %d after block must be allowed", i+1)
	}
	assert.Equal(t, 0, info.Remaining)
}

func TestLimiter_SlidingWindowEviction(t *testing.T) {
	l := newTestLimiter(t)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		blocked, _ := l.Check("client", 3, time.Minute)
		require.False(t, blocked)
	}

	// лимит исчерпан в пределах окна
	blocked, _ := l.Check("client", 3, time.Minute)
	require.True(t, blocked)

	// блокировка истекла, старые обращения выселены из окна
	now = start.Add(6 * time.Minute)
	blocked, info := l.Check("client", 3, time.Minute)
	require.False(t, blocked)
	assert.Equal(t, 2, info.Remaining)
}

func TestLimiter_IndependentIdentifiers(t *testing.T) {
	l := newTestLimiter(t)

	blocked, _ := l.Check("a", 1, time.Minute)
	require.False(t, blocked)
	blocked, _ = l.Check("a", 1, time.Minute)
	require.True(t, blocked)

	// другой идентификатор не затронут
	blocked, info := l.Check("b", 1, time.Minute)
	require.False(t, blocked)
	assert.Equal(t, 0, info.Remaining)
}

func TestLimiter_ConcurrentChecks(t *testing.T) {
	l := newTestLimiter(t)

	const goroutines = 50
	const limit = 10

	var wg sync.WaitGroup
	allowed := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if blocked, _ := l.Check("shared", limit, time.Minute); !blocked {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for range allowed {
		count++
	}
	assert.Equal(t, limit, count, "exactly limit requests must pass")

	// инвариант взаимоисключения: запись либо заблокирована с пустой
	// историей, либо ведёт подсчёт
	l.mu.Lock()
	rec := l.records["shared"]
	require.NotNil(t, rec)
	assert.True(t, rec.blockedUntil.After(time.Now()))
	assert.Empty(t, rec.hits)
	l.mu.Unlock()
}

func TestLimiter_SweepRemovesStale(t *testing.T) {
	l := newTestLimiter(t)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }

	for i := 0; i < sweepBatch+10; i++ {
		l.Check(fmt.Sprintf("stale-%d", i), 5, time.Minute)
	}

	// активная блокировка переживает очистку даже без обращений
	l.Check("blocked", 1, time.Minute)
	l.Check("blocked", 1, time.Minute)

	now = start.Add(2 * time.Hour)
	l.Check("fresh", 5, time.Minute)

	removed := l.sweep()
	assert.Equal(t, sweepBatch+11, removed)

	l.mu.Lock()
	_, hasFresh := l.records["fresh"]
	_, hasStale := l.records["stale-0"]
	_, hasBlocked := l.records["blocked"]
	l.mu.Unlock()

	assert.True(t, hasFresh)
	assert.False(t, hasStale)
	// блокировка "blocked" истекла два часа назад, запись удалена
	assert.False(t, hasBlocked)
}

func TestLimiter_ShutdownStopsCleanup(t *testing.T) {
	l := New(Config{
		BlockDuration:   time.Minute,
		CleanupInterval: 10 * time.Millisecond,
		StaleAfter:      time.Hour,
	}, testLogger())

	done := make(chan struct{})
	go func() {
		l.Shutdown()
		l.Shutdown() // повторный вызов не должен паниковать или висеть
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}
}
