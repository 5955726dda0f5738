package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/example/combitest/combinatorial/characterization/ben"
	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/config"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/observability"
	"github.com/example/combitest/internal/storage"
	"github.com/example/combitest/internal/storage/badger"
	"github.com/example/combitest/internal/storage/sqlite"
)

// session bundles what a command needs to drive one combinatorial session.
type session struct {
	model     *modelfile.Model
	testModel *domain.TestModel
	recorder  *report.Recorder
	metrics   *observability.Metrics
	manager   manager.Manager
}

func loadModel(path string) (*modelfile.Model, *domain.TestModel, error) {
	model, err := modelfile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	tm, err := model.TestModel()
	if err != nil {
		return nil, nil, err
	}
	return model, tm, nil
}

// newSession builds the manager of a model: positive and negative groups,
// BEN characterization unless the model disables it, and a result cache
// shared by every session of the same model.
func (a *app) newSession(model *modelfile.Model, tm *domain.TestModel, cache manager.ResultCache) (*session, error) {
	s := &session{
		model:     model,
		testModel: tm,
		recorder:  report.NewRecorder(),
		metrics:   observability.NewMetrics(),
	}

	cfg := manager.Configuration{
		Generators: []generator.Generator{generator.Positive{}, generator.Negative{}},
		Reporter: report.Multi{
			s.recorder,
			report.NewLogger(a.logger),
			observability.NewReporter(s.metrics),
		},
	}
	if charCfg, enabled := model.CharacterizationConfig(); enabled {
		factory, err := ben.NewFactory(charCfg)
		if err != nil {
			return nil, err
		}
		cfg.Characterization = factory
	}

	basic, err := manager.NewBasic(tm, cfg)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = manager.NewMemoryCache()
	}
	cached := manager.NewCaching(basic, observability.NewInstrumentedCache(cache, s.metrics))
	s.manager = observability.NewInstrumentedManager(cached, s.metrics)
	return s, nil
}

// stores holds the persistent state selected by the cache backend. The
// memory backend persists nothing.
type stores struct {
	sqlite *sqlite.Storage
	badger *badger.Store
}

func (a *app) openStores(ctx context.Context) (*stores, error) {
	s := &stores{}
	if a.cfg.Cache.Backend == config.CacheMemory {
		return s, nil
	}

	if err := os.MkdirAll(a.cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sqlite.New(a.cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s.sqlite = db

	if a.cfg.Cache.Backend == config.CacheBadger {
		store, err := badger.Open(a.cfg.BadgerDir(), a.logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open result cache: %w", err)
		}
		s.badger = store
	}
	return s, nil
}

// results returns the result cache of a model, nil for the memory backend.
func (s *stores) results(fingerprint string) manager.ResultCache {
	switch {
	case s.badger != nil:
		return s.badger.Results(fingerprint)
	case s.sqlite != nil:
		return s.sqlite.Results(fingerprint)
	}
	return nil
}

// sessions returns the session store, nil for the memory backend.
func (s *stores) sessions() storage.SessionStore {
	if s.sqlite == nil {
		return nil
	}
	return s.sqlite
}

func (s *stores) Close() error {
	var errs []error
	if s.badger != nil {
		errs = append(errs, s.badger.Close())
	}
	if s.sqlite != nil {
		errs = append(errs, s.sqlite.Close())
	}
	return errors.Join(errs...)
}

// requireSessions fails for commands that need stored sessions.
func (s *stores) requireSessions() (storage.SessionStore, error) {
	sessions := s.sessions()
	if sessions == nil {
		return nil, fmt.Errorf("%w: sessions are not stored with the %s cache", domain.ErrInvalidConfig, config.CacheMemory)
	}
	return sessions, nil
}
