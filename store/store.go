// Package store opens the ledger.Store backend selected by configuration.
package store

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/bookkeeper/config"
	"github.com/robinvdvleuten/bookkeeper/ledger"
	"github.com/robinvdvleuten/bookkeeper/store/boltstore"
	"github.com/robinvdvleuten/bookkeeper/store/sqlstore"
)

// Backend is a store that holds resources until closed.
type Backend interface {
	ledger.Store
	Close() error
}

// memoryBackend gives the in-memory store a no-op Close.
type memoryBackend struct {
	*ledger.MemoryStore
}

func (memoryBackend) Close() error { return nil }

// Open opens the backend described by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Kind {
	case config.StoreMemory, "":
		backend = memoryBackend{ledger.NewMemoryStore()}
	case config.StoreBolt:
		backend, err = boltstore.Open(cfg.DSN)
	case config.StoreSQLite:
		backend, err = sqlstore.OpenSQLite(ctx, cfg.DSN)
	case config.StorePostgres:
		backend, err = sqlstore.OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Kind)
	}
	if err != nil {
		log.WithError(err).WithField("store", cfg.Kind).Error("failed to open store")
		return nil, err
	}

	log.WithField("store", cfg.Kind).Debug("opened store")
	return backend, nil
}

// IsPersistent reports whether the backend keeps data after Close.
func IsPersistent(kind string) bool {
	return kind != config.StoreMemory && kind != ""
}
