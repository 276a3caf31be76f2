package dailylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pbaille/tailor/internal/domain"
	"github.com/pbaille/tailor/internal/store"
)

const (
	keyPrefix     = "applications_"
	dayLayout     = "2006-01-02"
	displayLayout = "3:04:05 PM"
)

// Log records generated applications partitioned by local calendar day
type Log struct {
	kv  store.KV
	now func() time.Time

	// serializes read-modify-write of a day's entry
	mu sync.Mutex
}

// Option configures a Log
type Option func(*Log)

// WithClock overrides time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates a Log backed by kv
func New(kv store.KV, opts ...Option) *Log {
	l := &Log{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DayKey returns the storage key for t's local calendar day
func DayKey(t time.Time) string {
	return keyPrefix + t.Local().Format(dayLayout)
}

// LoadToday returns today's records, newest first
func (l *Log) LoadToday(ctx context.Context) ([]domain.ApplicationRecord, error) {
	return l.LoadDay(ctx, l.now())
}

// LoadDay returns the records of the calendar day containing day
func (l *Log) LoadDay(ctx context.Context, day time.Time) ([]domain.ApplicationRecord, error) {
	return l.read(ctx, DayKey(day))
}

func (l *Log) read(ctx context.Context, key string) ([]domain.ApplicationRecord, error) {
	data, err := l.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.ApplicationRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var records []domain.ApplicationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if records == nil {
		records = []domain.ApplicationRecord{}
	}
	return records, nil
}

// Append prepends a new record to today's entry and persists the whole day
func (l *Log) Append(ctx context.Context, title string, t domain.GenerationType) (domain.ApplicationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := DayKey(now)

	records, err := l.read(ctx, key)
	if err != nil {
		return domain.ApplicationRecord{}, err
	}

	id := now.UnixMilli()
	if len(records) > 0 && id <= records[0].ID {
		id = records[0].ID + 1
	}

	rec := domain.ApplicationRecord{
		ID:        id,
		Title:     title,
		Type:      t,
		Timestamp: now.Local().Format(displayLayout),
	}

	updated := make([]domain.ApplicationRecord, 0, len(records)+1)
	updated = append(updated, rec)
	updated = append(updated, records...)

	data, err := json.Marshal(updated)
	if err != nil {
		return domain.ApplicationRecord{}, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.kv.Set(ctx, key, data); err != nil {
		return domain.ApplicationRecord{}, fmt.Errorf("save %s: %w", key, err)
	}

	return rec, nil
}
