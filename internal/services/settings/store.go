// Package settings owns the live fee configuration. It keeps the active
// schedule as an immutable snapshot that readers load without locking, and
// replaces it wholesale when an administrator saves new values or another
// replica announces a change.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"apega/internal/models"
	"apega/internal/services/fees"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// CacheKey holds the JSON snapshot shared by all replicas.
	CacheKey = "settings:fees:current"
	// Channel carries the new version number after every update.
	Channel = "settings:fees:updated"
)

var (
	ErrUnknownKey = errors.New("unknown setting key")
	ErrNoChanges  = errors.New("no settings to update")
)

// Repository is the persistence the store needs.
type Repository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, rows []models.Setting) error
}

// Cache keeps a JSON copy of the snapshot.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// Notifier fans change notifications out to the other replicas.
type Notifier interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, func() error, error)
}

type MetricsCollector interface {
	SetConfigVersion(version int64)
	RecordReload(source string)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) SetConfigVersion(int64) {}
func (NoopMetricsCollector) RecordReload(string)    {}

// Store implements fees.ConfigSource.
type Store struct {
	repo     Repository
	cache    Cache
	notifier Notifier
	defaults fees.Configuration
	logger   *zap.Logger
	metrics  MetricsCollector
	now      func() time.Time

	current atomic.Pointer[fees.Configuration]
	mu      sync.Mutex // serializes Update
}

// NewStore starts out serving defaults until Load succeeds. cache and
// notifier may be nil, in which case the store works from the database
// alone.
func NewStore(
	repo Repository,
	cache Cache,
	notifier Notifier,
	defaults fees.Configuration,
	logger *zap.Logger,
	metrics MetricsCollector,
) *Store {
	if repo == nil {
		panic("settings repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	s := &Store{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		defaults: defaults,
		logger:   logger.Named("settings"),
		metrics:  metrics,
		now:      time.Now,
	}
	initial := defaults
	s.current.Store(&initial)
	return s
}

// Snapshot returns the active configuration.
func (s *Store) Snapshot() fees.Configuration {
	return *s.current.Load()
}

// Settings returns the active configuration in key/value form.
func (s *Store) Settings() map[string]decimal.Decimal {
	return Values(s.Snapshot())
}

// Load warms the store, preferring the shared Redis copy over the database.
func (s *Store) Load(ctx context.Context) error {
	if s.cache != nil {
		var cfg fees.Configuration
		found, err := s.cache.Get(ctx, CacheKey, &cfg)
		switch {
		case err != nil:
			s.logger.Warn("settings cache read failed", zap.Error(err))
		case found:
			verr := cfg.Validate()
			if verr == nil {
				s.swap(cfg, "cache")
				return nil
			}
			s.logger.Warn("ignoring invalid cached settings", zap.Error(verr))
		}
	}
	return s.Reload(ctx, "database")
}

// Reload reads the settings table and swaps the result in. source labels the
// reload in logs and metrics.
func (s *Store) Reload(ctx context.Context, source string) error {
	cfg, err := s.fromDatabase(ctx)
	if err != nil {
		return err
	}
	if s.swap(cfg, source) {
		s.writeCache(ctx, cfg)
	}
	return nil
}

// Update applies changes on top of the stored configuration. The result is
// validated as a whole, so a change that would leave the schedule invalid is
// rejected without touching anything.
func (s *Store) Update(ctx context.Context, changes map[string]decimal.Decimal) (fees.Configuration, error) {
	if len(changes) == 0 {
		return fees.Configuration{}, ErrNoChanges
	}
	for key, value := range changes {
		if _, ok := lookup(key); !ok {
			return fees.Configuration{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		// The settings table keeps four decimal places; anything finer would
		// read back differently on other replicas.
		if !value.Equal(value.Round(fees.MaxSettingScale)) {
			return fees.Configuration{}, &fees.ConfigurationError{Field: key, Reason: "must have at most four decimal places"}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.fromDatabase(ctx)
	if err != nil {
		return fees.Configuration{}, err
	}
	if cur := s.Snapshot(); cur.Version > next.Version {
		next.Version = cur.Version
	}
	for key, value := range changes {
		f, _ := lookup(key)
		*f.ref(&next) = value
	}
	if err := next.Validate(); err != nil {
		return fees.Configuration{}, err
	}

	next.Version++
	next.UpdatedAt = s.now().UTC()

	rows := make([]models.Setting, 0, len(fields))
	for key, value := range Values(next) {
		rows = append(rows, models.Setting{
			Key:       key,
			Value:     value,
			Version:   next.Version,
			UpdatedAt: next.UpdatedAt,
		})
	}
	if err := s.repo.Upsert(ctx, rows); err != nil {
		return fees.Configuration{}, fmt.Errorf("failed to persist settings: %w", err)
	}

	s.swap(next, "update")
	s.writeCache(ctx, next)
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, Channel, strconv.FormatInt(next.Version, 10)); err != nil {
			s.logger.Warn("failed to announce settings update", zap.Error(err))
		}
	}

	s.logger.Info("fee settings updated",
		zap.Int64("version", next.Version),
		zap.Int("changed", len(changes)))
	return next, nil
}

// Watch reloads whenever another replica announces a newer version. It
// blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	if s.notifier == nil {
		<-ctx.Done()
		return nil
	}

	msgs, closeSub, err := s.notifier.Subscribe(ctx, Channel)
	if err != nil {
		return err
	}
	defer closeSub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if v, err := strconv.ParseInt(msg, 10, 64); err == nil && v <= s.Snapshot().Version {
				continue
			}
			if err := s.Reload(ctx, "pubsub"); err != nil {
				s.logger.Error("settings reload failed", zap.String("source", "pubsub"), zap.Error(err))
			}
		}
	}
}

// ScheduleRefresh registers a periodic reload on c.
func (s *Store) ScheduleRefresh(c *cron.Cron, interval time.Duration) (cron.EntryID, error) {
	return c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Reload(ctx, "cron"); err != nil {
			s.logger.Error("settings reload failed", zap.String("source", "cron"), zap.Error(err))
		}
	})
}

// fromDatabase overlays stored rows on the defaults. The snapshot version is
// the highest row version.
func (s *Store) fromDatabase(ctx context.Context) (fees.Configuration, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return fees.Configuration{}, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := s.defaults
	for _, row := range rows {
		f, ok := lookup(row.Key)
		if !ok {
			s.logger.Debug("skipping unknown setting", zap.String("key", row.Key))
			continue
		}
		*f.ref(&cfg) = row.Value
		if row.Version > cfg.Version {
			cfg.Version = row.Version
		}
		if row.UpdatedAt.After(cfg.UpdatedAt) {
			cfg.UpdatedAt = row.UpdatedAt
		}
	}
	if err := cfg.Validate(); err != nil {
		return fees.Configuration{}, fmt.Errorf("stored settings: %w", err)
	}
	return cfg, nil
}

// swap installs cfg unless a newer snapshot is already active.
func (s *Store) swap(cfg fees.Configuration, source string) bool {
	for {
		cur := s.current.Load()
		if cfg.Version < cur.Version {
			return false
		}
		next := cfg
		if s.current.CompareAndSwap(cur, &next) {
			s.metrics.SetConfigVersion(cfg.Version)
			s.metrics.RecordReload(source)
			return true
		}
	}
}

func (s *Store) writeCache(ctx context.Context, cfg fees.Configuration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKey, cfg); err != nil {
		s.logger.Warn("failed to cache settings", zap.Error(err))
	}
}
