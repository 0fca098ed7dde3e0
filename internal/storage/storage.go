// Package storage opens the document store selected by configuration.
package storage

import (
	"fmt"

	"bookstore/internal/config"
	"bookstore/package/client/database"
	"bookstore/package/client/jsondb"
	"bookstore/package/client/redis"
	"bookstore/package/logger"
)

const (
	TypeFile     = "file"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
	TypeRedis    = "redis"
)

func Open(cfg config.StorageConfig) (*jsondb.DB, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	db, err := jsondb.Open(backend, jsondb.Options{Pretty: cfg.Pretty})
	if err != nil {
		backend.Close()
		return nil, err
	}
	logger.Log.Info("Opened ", cfg.Type, " store")
	return db, nil
}

func newBackend(cfg config.StorageConfig) (jsondb.Backend, error) {
	switch cfg.Type {
	case TypeFile, "":
		return jsondb.NewFileBackend(cfg.Path)
	case TypePostgres:
		db, err := database.Init(cfg)
		if err != nil {
			return nil, err
		}
		backend, err := database.NewDocumentBackend(db, cfg.Document, cfg.Timeout)
		if err != nil {
			db.Close()
			return nil, err
		}
		return backend, nil
	case TypeSQLite:
		db, err := database.InitSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		backend, err := database.NewDocumentBackend(db, cfg.Document, cfg.Timeout)
		if err != nil {
			db.Close()
			return nil, err
		}
		return backend, nil
	case TypeRedis:
		return redis.NewDocumentBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Document, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
