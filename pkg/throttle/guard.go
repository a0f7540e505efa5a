package throttle

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Record notes one accepted submission.
type Record struct {
	TeacherID   string `json:"teacherId"`
	Timestamp   int64  `json:"timestamp"`
	Fingerprint string `json:"fingerprint"`
}

// Store persists the ordered record list under a key.
type Store interface {
	Load(ctx context.Context, key string) ([]Record, error)
	Save(ctx context.Context, key string, records []Record, ttl time.Duration) error
}

// Decision is the outcome of a throttle check. Remaining is positive only when denied.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// Guard rejects repeat submissions for the same teacher and fingerprint inside a cooldown.
// Storage faults fail open. Check and Record are separate steps, so concurrent submissions with
// the same key can both pass; it is a deterrent, not a lock.
type Guard struct {
	store    Store
	cooldown time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option customises a Guard.
type Option func(*Guard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithLogger attaches a logger for store faults.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard constructs a Guard. A non-positive cooldown defaults to five minutes.
func NewGuard(store Store, cooldown time.Duration, opts ...Option) *Guard {
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	g := &Guard{store: store, cooldown: cooldown, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cooldown returns the configured window.
func (g *Guard) Cooldown() time.Duration {
	return g.cooldown
}

// Check purges expired records and denies when a live record matches teacher and fingerprint.
func (g *Guard) Check(ctx context.Context, key, teacherID, fingerprint string) Decision {
	records, err := g.store.Load(ctx, key)
	if err != nil {
		g.logger.Warn("throttle load failed, allowing submission", zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true}
	}

	now := g.now().UnixMilli()
	live := g.purge(records, now)
	for _, rec := range live {
		if rec.TeacherID == teacherID && rec.Fingerprint == fingerprint {
			remaining := g.cooldown - time.Duration(now-rec.Timestamp)*time.Millisecond
			return Decision{Allowed: false, Remaining: remaining}
		}
	}

	if len(live) != len(records) {
		if err := g.store.Save(ctx, key, live, g.cooldown); err != nil {
			g.logger.Warn("throttle purge save failed", zap.String("key", key), zap.Error(err))
		}
	}
	return Decision{Allowed: true}
}

// Record appends an accepted submission after purging expired entries.
func (g *Guard) Record(ctx context.Context, key, teacherID, fingerprint string) {
	records, err := g.store.Load(ctx, key)
	if err != nil {
		g.logger.Warn("throttle load failed, submission not recorded", zap.String("key", key), zap.Error(err))
		return
	}
	now := g.now().UnixMilli()
	records = append(records, Record{TeacherID: teacherID, Timestamp: now, Fingerprint: fingerprint})
	if err := g.store.Save(ctx, key, g.purge(records, now), g.cooldown); err != nil {
		g.logger.Warn("throttle record save failed", zap.String("key", key), zap.Error(err))
	}
}

func (g *Guard) purge(records []Record, now int64) []Record {
	window := g.cooldown.Milliseconds()
	live := make([]Record, 0, len(records))
	for _, rec := range records {
		if now-rec.Timestamp < window {
			live = append(live, rec)
		}
	}
	return live
}
