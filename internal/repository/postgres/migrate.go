package postgres

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Registers the "pgx" driver for database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
)

const prefixPlaceholder = "{{prefix}}"

// Migrator applies the embedded schema migrations for one table prefix.
type Migrator struct {
	db *sql.DB
	m  *migrate.Migrate
}

// NewMigrator opens a dedicated database/sql connection and prepares the
// migrations in files for the given table prefix. Each prefix keeps its own
// version table, so dev_, test_ and prod schemas migrate independently.
func NewMigrator(databaseURL, prefix string, files fs.FS) (*Migrator, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{
		MigrationsTable: prefix + "schema_migrations",
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialise migrate driver: %w", err)
	}

	source, err := iofs.New(PrefixedFS(files, prefix), ".")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{db: db, m: m}, nil
}

// Up applies all pending migrations. Already being current is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	if err := mg.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version. ok is false before the first migration.
func (mg *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, true, nil
}

// Close releases the migrator and its connection.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr, mg.db.Close())
}

// PrefixedFS returns a view of files in which every .sql file has the
// {{prefix}} placeholder replaced by prefix. Other entries pass through.
func PrefixedFS(files fs.FS, prefix string) fs.FS {
	return &prefixedFS{base: files, prefix: []byte(prefix)}
}

type prefixedFS struct {
	base   fs.FS
	prefix []byte
}

func (p *prefixedFS) Open(name string) (fs.File, error) {
	f, err := p.base.Open(name)
	if err != nil || path.Ext(name) != ".sql" {
		return f, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	content := bytes.ReplaceAll(raw, []byte(prefixPlaceholder), p.prefix)
	return &sqlFile{Reader: bytes.NewReader(content), info: sqlFileInfo{FileInfo: info, size: int64(len(content))}}, nil
}

// ReadDir lets fs.ReadDir list the base directory directly
func (p *prefixedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(p.base, name)
}

type sqlFile struct {
	*bytes.Reader
	info sqlFileInfo
}

func (f *sqlFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *sqlFile) Close() error               { return nil }

// sqlFileInfo reports the size after substitution
type sqlFileInfo struct {
	fs.FileInfo
	size int64
}

func (i sqlFileInfo) Size() int64 { return i.size }
