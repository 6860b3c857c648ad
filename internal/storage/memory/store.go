package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bcnelson/winterface/internal/domain"
	"github.com/bcnelson/winterface/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing.
type Store struct {
	mu sync.RWMutex

	settings map[string]*domain.Setting
	changes  []*domain.SettingChange
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		settings: make(map[string]*domain.Setting),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return &Tx{store: s}, nil
}

// Tx buffers writes and applies them to the store on Commit.
type Tx struct {
	store    *Store
	settings []*domain.Setting
	changes  []*domain.SettingChange
}

func (t *Tx) PutSetting(ctx context.Context, setting *domain.Setting) error {
	t.settings = append(t.settings, setting)
	return nil
}

func (t *Tx) CreateSettingChange(ctx context.Context, change *domain.SettingChange) error {
	t.changes = append(t.changes, change)
	return nil
}

func (t *Tx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, setting := range t.settings {
		cp := *setting
		t.store.settings[setting.Name] = &cp
	}
	for _, change := range t.changes {
		cp := *change
		t.store.changes = append(t.store.changes, &cp)
	}
	t.settings, t.changes = nil, nil
	return nil
}

func (t *Tx) Rollback() error {
	t.settings, t.changes = nil, nil
	return nil
}

func (s *Store) GetSetting(ctx context.Context, name string) (*domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *setting
	return &cp, nil
}

func (s *Store) ListSettings(ctx context.Context) ([]*domain.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Setting, 0, len(s.settings))
	for _, setting := range s.settings {
		cp := *setting
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) PutSetting(ctx context.Context, setting *domain.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *setting
	s.settings[setting.Name] = &cp
	return nil
}

func (s *Store) DeleteSetting(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.settings, name)
	return nil
}

func (s *Store) CreateSettingChange(ctx context.Context, change *domain.SettingChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *change
	s.changes = append(s.changes, &cp)
	return nil
}

// ListSettingChanges returns changes newest first.
func (s *Store) ListSettingChanges(ctx context.Context, limit, offset int) ([]*domain.SettingChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SettingChange, 0, len(s.changes))
	for i := len(s.changes) - 1; i >= 0; i-- {
		cp := *s.changes[i]
		result = append(result, &cp)
	}
	if offset >= len(result) {
		return []*domain.SettingChange{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// LoadSettings implements access.Source.
func (s *Store) LoadSettings(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]string, len(s.settings))
	for name, setting := range s.settings {
		values[name] = setting.Value
	}
	return values, nil
}
