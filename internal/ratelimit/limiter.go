// Package ratelimit реализует ограничение частоты запросов по скользящему окну
// с фиксированной штрафной блокировкой. Для каждого идентификатора хранятся
// отметки времени обращений в пределах окна; при превышении лимита
// идентификатор блокируется на отдельный штрафной период, в течение которого
// новые обращения не записываются.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Config задаёт параметры блокировки и фоновой очистки.
type Config struct {
	// BlockDuration — штрафной период после превышения лимита.
	BlockDuration time.Duration
	// CleanupInterval — период фоновой очистки устаревших записей.
	CleanupInterval time.Duration
	// StaleAfter — возраст последнего обращения, после которого запись удаляется.
	StaleAfter time.Duration
}

// Info описывает состояние лимита для идентификатора после проверки.
type Info struct {
	Limit      int           // Лимит запросов в окне
	Remaining  int           // Оставшееся число запросов в текущем окне
	ResetAt    time.Time     // Момент сброса окна либо окончания блокировки
	RetryAfter time.Duration // Через сколько можно повторить, ноль если не заблокирован
}

// record хранит состояние одного идентификатора. Идентификатор находится либо
// в состоянии подсчёта (hits), либо в состоянии блокировки (blockedUntil в
// будущем) — при установке блокировки история обращений очищается.
type record struct {
	hits         []time.Time
	blockedUntil time.Time
}

// Limiter — сервис ограничения частоты запросов. Создаётся через New,
// внедряется в middleware и останавливается через Shutdown.
type Limiter struct {
	mu      sync.Mutex
	records map[string]*record

	blockDuration   time.Duration
	cleanupInterval time.Duration
	staleAfter      time.Duration

	log *slog.Logger
	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New создаёт Limiter и запускает фоновую горутину очистки.
func New(cfg Config, log *slog.Logger) *Limiter {
	l := &Limiter{
		records:         make(map[string]*record),
		blockDuration:   cfg.BlockDuration,
		cleanupInterval: cfg.CleanupInterval,
		staleAfter:      cfg.StaleAfter,
		log:             log,
		now:             time.Now,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Check регистрирует обращение идентификатора и сообщает, заблокирован ли он.
// Вся проверка выполняется в одной критической секции: при отмене внешнего
// запроса состояние записи не остаётся частично изменённым.
func (l *Limiter) Check(identifier string, limit int, window time.Duration) (bool, Info) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identifier]
	if !ok {
		rec = &record{}
		l.records[identifier] = rec
	}

	if rec.blockedUntil.After(now) {
		return true, Info{
			Limit:      limit,
			Remaining:  0,
			ResetAt:    rec.blockedUntil,
			RetryAfter: rec.blockedUntil.Sub(now),
		}
	}
	rec.blockedUntil = time.Time{}

	cutoff := now.Add(-window)
	kept := rec.hits[:0]
	for _, h := range rec.hits {
		if h.After(cutoff) {
			kept = append(kept, h)
		}
	}
	rec.hits = kept

	if len(rec.hits) >= limit {
		rec.blockedUntil = now.Add(l.blockDuration)
		rec.hits = nil
		return true, Info{
			Limit:      limit,
			Remaining:  0,
			ResetAt:    rec.blockedUntil,
			RetryAfter: l.blockDuration,
		}
	}

	rec.hits = append(rec.hits, now)
	return false, Info{
		Limit:     limit,
		Remaining: limit - len(rec.hits),
		ResetAt:   now.Add(window),
	}
}

// Shutdown останавливает фоновую очистку. Повторные вызовы безопасны.
func (l *Limiter) Shutdown() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
}

func (l *Limiter) cleanupLoop() {
	defer close(l.done)

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			removed := l.sweep()
			if removed > 0 {
				l.log.Debug("rate limiter cleanup finished", slog.Int("removed", removed))
			}
		}
	}
}

// sweepBatch ограничивает время удержания мьютекса одной порцией ключей,
// чтобы очистка не задерживала обработку запросов.
const sweepBatch = 256

// sweep удаляет записи без недавних обращений и с истёкшей блокировкой.
// Ключи снимаются в снапшот под мьютексом, затем проверяются и удаляются
// порциями, каждая под отдельным захватом мьютекса.
func (l *Limiter) sweep() int {
	now := l.now()

	l.mu.Lock()
	keys := make([]string, 0, len(l.records))
	for k := range l.records {
		keys = append(keys, k)
	}
	l.mu.Unlock()

	removed := 0
	for start := 0; start < len(keys); start += sweepBatch {
		end := min(start+sweepBatch, len(keys))

		l.mu.Lock()
		for _, k := range keys[start:end] {
			rec, ok := l.records[k]
			if !ok {
				continue
			}
			if l.isStale(rec, now) {
				delete(l.records, k)
				removed++
			}
		}
		l.mu.Unlock()
	}
	return removed
}

func (l *Limiter) isStale(rec *record, now time.Time) bool {
	if rec.blockedUntil.After(now) {
		return false
	}
	if len(rec.hits) == 0 {
		return true
	}
	return now.Sub(rec.hits[len(rec.hits)-1]) >= l.staleAfter
}
