package scheduler

import (
	"log/slog"
	"time"

	"github.com/nandovz/airsched/scheduler/recurrence"
	"github.com/nandovz/airsched/scheduler/storage"
)

// Config holds configuration for a Scheduler.
type Config struct {
	// Location is the station's default timezone. Nil defaults to UTC.
	Location *time.Location

	// Logger receives lifecycle and debug events. Nil uses slog.Default().
	Logger *slog.Logger

	// Cache configures the compiled-ruleset cache. Nil uses
	// recurrence.DefaultCacheConfig; DisableCache turns it off.
	Cache        *recurrence.CacheConfig
	DisableCache bool
}

// Scheduler is the entry point of the scheduling core. It owns the
// recurrence engine, the station timezone and the storage backend, and
// exposes schedule persistence, transmission queries and episode
// rearrangement.
type Scheduler struct {
	store  storage.Storage
	engine *recurrence.Engine
	tz     *recurrence.Normalizer
	cache  *recurrence.RulesetCache
	log    *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Scheduler on top of a storage backend.
func New(store storage.Storage, cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := recurrence.NewEngine(cfg.Location)

	var cache *recurrence.RulesetCache
	if !cfg.DisableCache {
		cacheCfg := recurrence.DefaultCacheConfig
		if cfg.Cache != nil {
			cacheCfg = *cfg.Cache
		}
		cache = recurrence.NewRulesetCache(cacheCfg)
	}

	return &Scheduler{
		store:  store,
		engine: engine,
		tz:     engine.Normalizer(),
		cache:  cache,
		log:    logger,
		now:    time.Now,
	}
}

// Close releases the ruleset cache's cleanup goroutine.
func (s *Scheduler) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// Engine exposes the recurrence engine, mainly for tests and tooling.
func (s *Scheduler) Engine() *recurrence.Engine {
	return s.engine
}

// compileRuleset parses a schedule record's recurrence text through the
// cache.
func (s *Scheduler) compileRuleset(startDT time.Time, text string) (*recurrence.Ruleset, error) {
	if s.cache != nil {
		if rs, ok := s.cache.Get(startDT, text); ok {
			return rs, nil
		}
	}
	rs, err := s.engine.ParseRuleset(startDT, text)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(startDT, text, rs)
	}
	return rs, nil
}
