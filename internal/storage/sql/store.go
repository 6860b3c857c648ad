package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/bcnelson/winterface/internal/domain"
	"github.com/bcnelson/winterface/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store and runs pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction.
type Tx struct {
	tx *sqlx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// helper to get the correct database interface
type dbInterface interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ============================================
// Settings
// ============================================

func (s *Store) GetSetting(ctx context.Context, name string) (*domain.Setting, error) {
	var setting domain.Setting
	err := s.db.GetContext(ctx, &setting,
		`SELECT name, value, updated_at FROM settings WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (s *Store) ListSettings(ctx context.Context) ([]*domain.Setting, error) {
	var settings []*domain.Setting
	err := s.db.SelectContext(ctx, &settings,
		`SELECT name, value, updated_at FROM settings ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func putSetting(ctx context.Context, db dbInterface, setting *domain.Setting) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (name, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		setting.Name, setting.Value, setting.UpdatedAt)
	return err
}

func (s *Store) PutSetting(ctx context.Context, setting *domain.Setting) error {
	return putSetting(ctx, s.db, setting)
}

func (t *Tx) PutSetting(ctx context.Context, setting *domain.Setting) error {
	return putSetting(ctx, t.tx, setting)
}

func (s *Store) DeleteSetting(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE name = $1`, name)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LoadSettings implements access.Source.
func (s *Store) LoadSettings(ctx context.Context) (map[string]string, error) {
	settings, err := s.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Name] = setting.Value
	}
	return values, nil
}

// ============================================
// Setting changes
// ============================================

func createSettingChange(ctx context.Context, db dbInterface, change *domain.SettingChange) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO setting_changes (id, name, old_value, new_value, outcome, actor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		change.ID, change.Name, change.OldValue, change.NewValue, change.Outcome, change.Actor, change.CreatedAt)
	return err
}

func (s *Store) CreateSettingChange(ctx context.Context, change *domain.SettingChange) error {
	return createSettingChange(ctx, s.db, change)
}

func (t *Tx) CreateSettingChange(ctx context.Context, change *domain.SettingChange) error {
	return createSettingChange(ctx, t.tx, change)
}

// ListSettingChanges returns changes newest first.
func (s *Store) ListSettingChanges(ctx context.Context, limit, offset int) ([]*domain.SettingChange, error) {
	changes := []*domain.SettingChange{}
	err := s.db.SelectContext(ctx, &changes,
		`SELECT id, name, old_value, new_value, outcome, actor, created_at
		 FROM setting_changes ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	return changes, nil
}
