//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

package platform

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/synthetic-agora/agora/log"
)

// InMemoryDSN opens a private in-memory database, used by tests and demos.
const InMemoryDSN = ":memory:"

// Database wraps the gorm handle and owns connection lifecycle.
// One Database instance is shared by the whole process; each tool
// invocation runs inside its own transaction (see Transaction).
type Database struct {
	db   *gorm.DB
	path string
}

// databaseOpts holds the configuration options for Open.
type databaseOpts struct {
	gormConfig *gorm.Config
}

// Option configures Open.
type Option func(*databaseOpts)

// WithGormConfig overrides the default gorm configuration.
func WithGormConfig(cfg *gorm.Config) Option {
	return func(o *databaseOpts) {
		o.gormConfig = cfg
	}
}

// Open opens (creating if needed) the sqlite database at path and
// applies the connection pragmas the platform relies on.
func Open(path string, options ...Option) (*Database, error) {
	opts := databaseOpts{}
	for _, option := range options {
		option(&opts)
	}
	if opts.gormConfig == nil {
		opts.gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), opts.gormConfig)
	if err != nil {
		return nil, fmt.Errorf("platform: open database %s: %w", path, err)
	}
	if path == InMemoryDSN {
		// Each pooled connection would otherwise see its own private
		// in-memory database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("platform: open database %s: %w", path, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return &Database{db: db, path: path}, nil
}

// dsn builds the sqlite DSN. WAL journaling and a busy timeout keep the
// single file usable when invocations for different agents overlap.
func dsn(path string) string {
	if path == InMemoryDSN {
		return path
	}
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=30000&_foreign_keys=on", path)
}

// AutoMigrate creates or updates all platform tables and indexes.
func (d *Database) AutoMigrate() error {
	if err := d.db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("platform: migrate: %w", err)
	}
	log.Debugf("database ready: %s", d.path)
	return nil
}

// Transaction runs fn inside a single transaction: committed on normal
// return, rolled back when fn returns an error or panics.
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.db.Transaction(fn)
}

// Session returns the raw gorm handle for callers that manage their own
// transactional scope (tests, maintenance commands).
func (d *Database) Session() *gorm.DB {
	return d.db
}

// Stats returns the live (non-deleted) row count per table.
func (d *Database) Stats() (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, model := range allModels() {
		stmt := &gorm.Statement{DB: d.db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("platform: stats: %w", err)
		}
		var n int64
		if err := d.db.Model(model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("platform: stats: count %s: %w", stmt.Schema.Table, err)
		}
		counts[stmt.Schema.Table] = n
	}
	return counts, nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("platform: close: %w", err)
	}
	return sqlDB.Close()
}
