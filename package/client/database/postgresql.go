package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"bookstore/internal/config"
	"bookstore/package/logger"
)

func Init(cfg config.StorageConfig) (*sqlx.DB, error) {
	logger.Log.Info(fmt.Sprintf("Connecting to host=%s port=%d user=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Database))
	psqlconn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", psqlconn)
	if err != nil {
		logger.Log.Error(err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	logger.Log.Info("Connected to database")
	return db, nil
}
