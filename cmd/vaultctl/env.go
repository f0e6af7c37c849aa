package main

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/logger"
	"docvault/internal/storage"
)

// env holds the connections a command opened. close releases them in
// reverse order.
type env struct {
	log     *zap.Logger
	db      *sql.DB
	store   storage.Storage
	closers []func() error
}

func (e *env) close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type envNeeds struct {
	db    bool
	store bool
}

// openEnv connects to what a command needs. Logs go to stderr in console
// format so stdout stays clean for command output.
func openEnv(ctx context.Context, cfg *config.AppConfig, needs envNeeds) (*env, error) {
	logCfg := cfg.Log
	logCfg.Format = "console"
	logCfg.File = ""
	logCfg.DisableCaller = true
	log, err := logger.NewCLI(logCfg)
	if err != nil {
		return nil, err
	}
	e := &env{log: log, closers: []func() error{func() error { _ = log.Sync(); return nil }}}

	if needs.db {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			e.close()
			return nil, err
		}
		e.db = db
		e.closers = append(e.closers, db.Close)
	}

	if needs.store {
		store, err := storage.New(ctx, cfg.Blob)
		if err != nil {
			e.close()
			return nil, err
		}
		e.store = store
	}

	return e, nil
}
