package application

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationManager applies the SQL schemas registered by modules. Each schema
// tracks its own goose version table so module migration numbering never
// collides.
type MigrationManager interface {
	RegisterSchema(name string, fsys fs.FS)
	Run(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type schemaSet struct {
	name string
	fsys fs.FS
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	mu      sync.Mutex
	pool    *pgxpool.Pool
	schemas []schemaSet
}

func (m *migrationManager) RegisterSchema(name string, fsys fs.FS) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas = append(m.schemas, schemaSet{name: name, fsys: fsys})
}

func (m *migrationManager) Run(ctx context.Context) error {
	return m.each(ctx, func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, ".")
	})
}

func (m *migrationManager) Rollback(ctx context.Context) error {
	return m.each(ctx, func(ctx context.Context, db *sql.DB) error {
		return goose.DownContext(ctx, db, ".")
	})
}

// each serializes goose runs because goose tracks the base FS and table name
// in package-level state.
func (m *migrationManager) each(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	for _, s := range m.schemas {
		goose.SetBaseFS(s.fsys)
		goose.SetTableName("goose_db_version_" + s.name)
		if err := fn(ctx, db); err != nil {
			return fmt.Errorf("migrate schema %q: %w", s.name, err)
		}
	}
	return nil
}
