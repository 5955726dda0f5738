// Package badger implements storage.ResultStore on a Badger key-value store.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/internal/storage"
)

// Store keeps results under "namespace/combination" keys.
type Store struct {
	db *badger.DB
}

var _ storage.ResultStore = (*Store)(nil)

// Open opens the store in dir. An empty dir keeps everything in memory.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir).WithSyncWrites(false).WithTruncate(true)
	}
	if logger == nil {
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(slogAdapter{logger.With("component", "badger")})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open result store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Results returns the result cache of namespace.
func (s *Store) Results(namespace string) manager.ResultCache {
	return &resultCache{db: s.db, prefix: namespace + "/"}
}

type storedResult struct {
	Outcome domain.TestOutcome `json:"outcome"`
	Cause   string             `json:"cause,omitempty"`
}

type resultCache struct {
	db     *badger.DB
	prefix string
}

func (c *resultCache) key(input domain.Combination) []byte {
	return []byte(c.prefix + string(input.Key()))
}

func (c *resultCache) ContainsResultFor(ctx context.Context, input domain.Combination) (bool, error) {
	_, err := c.ResultFor(ctx, input)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (c *resultCache) ResultFor(_ context.Context, input domain.Combination) (domain.TestResult, error) {
	var valCopy []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(input))
		if err != nil {
			return err
		}

		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.TestResult{}, fmt.Errorf("%w: result for %v", domain.ErrNotFound, input)
	}
	if err != nil {
		return domain.TestResult{}, err
	}

	var stored storedResult
	if err := json.Unmarshal(valCopy, &stored); err != nil {
		return domain.TestResult{}, fmt.Errorf("corrupt result for %v: %w", input, err)
	}
	return domain.TestResult{Outcome: stored.Outcome, Cause: stored.Cause}, nil
}

func (c *resultCache) AddResultFor(_ context.Context, input domain.Combination, result domain.TestResult) error {
	data, err := json.Marshal(storedResult{Outcome: result.Outcome, Cause: result.Cause})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(input), data)
	})
}

// slogAdapter routes badger's log output to slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Infof(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}
