package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/domain"
	"github.com/bcnelson/winterface/internal/hostlist"
	"github.com/bcnelson/winterface/internal/logging"
	"github.com/bcnelson/winterface/internal/storage"
	"github.com/bcnelson/winterface/internal/storage/file"
	"github.com/bcnelson/winterface/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, overlay access.Source) (*SettingsService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewSettingsService(store, access.New(), overlay, 10*time.Millisecond, logging.Discard(), nil)
	t.Cleanup(svc.Close)
	return svc, store
}

func TestUpdate_PersistsAndApplies(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	outcome, err := svc.Update(ctx, access.OptionFullAccessHosts, "10.0.0.5", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, access.Applied, outcome)
	require.True(t, svc.Configuration().FullAccessHosts().ContainsString("10.0.0.5"))

	stored, err := store.GetSetting(ctx, access.OptionFullAccessHosts)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", stored.Value)

	changes, err := svc.Changes(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, access.DefaultFullAccessHosts, changes[0].OldValue)
	require.Equal(t, "10.0.0.5", changes[0].NewValue)
	require.Equal(t, "applied", changes[0].Outcome)
	require.Equal(t, "127.0.0.1", changes[0].Actor)
	require.NotEmpty(t, changes[0].ID)
}

func TestUpdate_InvalidLeavesEverythingUntouched(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	outcome, err := svc.Update(ctx, access.OptionAllowedHosts, "127.0.0.1,bad!host", "::1")
	require.ErrorIs(t, err, hostlist.ErrInvalidHost)
	require.Equal(t, access.Rejected, outcome)
	require.Equal(t, access.DefaultAllowedHosts, svc.Configuration().AllowedHosts().String())

	_, err = store.GetSetting(ctx, access.OptionAllowedHosts)
	require.ErrorIs(t, err, domain.ErrNotFound)

	changes, err := svc.Changes(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestUpdate_UnknownSetting(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Update(context.Background(), "colour", "blue", "::1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get("colour")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_AllowedHostsTriggersDebouncedRestart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	svc.debounce = 100 * time.Millisecond

	var restarts atomic.Int32
	svc.OnRestart(func() { restarts.Add(1) })

	for _, value := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		outcome, err := svc.Update(ctx, access.OptionAllowedHosts, value, "::1")
		require.NoError(t, err)
		require.Equal(t, access.RestartRequired, outcome)
	}
	require.True(t, svc.RestartPending())

	require.Eventually(t, func() bool { return restarts.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, svc.RestartPending())

	_, err := svc.Update(ctx, access.OptionFullAccessHosts, "10.0.0.9", "::1")
	require.NoError(t, err)
	require.False(t, svc.RestartPending())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.Update(ctx, access.OptionMaxLength, "10", "::1")
	require.NoError(t, err)

	_, err = svc.Reset(ctx, access.OptionMaxLength, "::1")
	require.NoError(t, err)
	require.Equal(t, access.DefaultMaxLength, svc.Configuration().MaxLength())

	_, err = svc.Reset(ctx, "colour", "::1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReload_StoreWinsOverOverlay(t *testing.T) {
	ctx := context.Background()
	overlay := access.Settings{access.OptionPort: "9000", access.OptionPublicGateway: "true"}
	svc, store := newTestService(t, overlay)

	require.NoError(t, store.PutSetting(ctx, &domain.Setting{Name: access.OptionPort, Value: "9100"}))

	outcome, err := svc.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, access.RestartRequired, outcome)
	require.Equal(t, 9100, svc.Configuration().Port())
	require.True(t, svc.Configuration().PublicGateway())

	outcome, err = svc.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, access.Applied, outcome)
}

func TestReload_InvalidStoredValue(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	require.NoError(t, store.PutSetting(ctx, &domain.Setting{Name: access.OptionFullAccessHosts, Value: "nope"}))

	_, err := svc.Reload(ctx)
	require.ErrorIs(t, err, hostlist.ErrInvalidHost)
	require.Equal(t, access.DefaultFullAccessHosts, svc.Configuration().FullAccessHosts().String())
}

type failingStore struct {
	storage.Storage
}

func (failingStore) BeginTx(context.Context) (storage.Transaction, error) {
	return nil, errors.New("database is locked")
}

func TestUpdate_StorageFailure(t *testing.T) {
	svc := NewSettingsService(failingStore{memory.New()}, access.New(), nil, time.Millisecond, logging.Discard(), nil)

	_, err := svc.Update(context.Background(), access.OptionFullAccessHosts, "10.0.0.5", "::1")
	require.ErrorContains(t, err, "database is locked")
	require.Equal(t, access.DefaultFullAccessHosts, svc.Configuration().FullAccessHosts().String())
}

func TestReloader_PicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winterface.yaml")
	require.NoError(t, os.WriteFile(path, []byte("isPublicGateWay: false\n"), 0o644))

	svc, _ := newTestService(t, file.New(path))
	reloader, err := NewReloader(svc, path, 10*time.Millisecond, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reloader.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, os.WriteFile(path, []byte("isPublicGateWay: true\n"), 0o644))
	require.Eventually(t, svc.Configuration().PublicGateway, 2*time.Second, 10*time.Millisecond)
}

func TestSettings_EffectiveAndDefaults(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Update(context.Background(), access.OptionPort, "9000", "::1")
	require.NoError(t, err)

	resp := svc.Settings()
	require.Equal(t, "9000", resp.Settings[access.OptionPort])
	require.Equal(t, "8088", resp.Defaults[access.OptionPort])

	value, err := svc.Get(access.OptionPort)
	require.NoError(t, err)
	require.Equal(t, "9000", value)
}

func TestUpdate_StoresNormalisedValue(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	_, err := svc.Update(ctx, access.OptionAllowedHosts, " 10.0.0.1,  10.0.0.2 ", "::1")
	require.NoError(t, err)

	stored, err := store.GetSetting(ctx, access.OptionAllowedHosts)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1,10.0.0.2", stored.Value)

	changes, err := svc.Changes(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1,10.0.0.2", changes[0].NewValue)

	// Wait out the restart from the update itself.
	require.Eventually(t, func() bool { return !svc.RestartPending() }, time.Second, 5*time.Millisecond)

	var restarts atomic.Int32
	svc.OnRestart(func() { restarts.Add(1) })

	outcome, err := svc.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, access.Applied, outcome)
	require.False(t, svc.RestartPending())
	require.Zero(t, restarts.Load())
}

type failingPutTx struct {
	storage.Transaction
}

func (failingPutTx) PutSetting(context.Context, *domain.Setting) error {
	return errors.New("disk full")
}

type failingPutStore struct {
	*memory.Store
}

func (s failingPutStore) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return failingPutTx{tx}, nil
}

func TestUpdate_StoreFailureRevertsApply(t *testing.T) {
	ctx := context.Background()
	store := failingPutStore{memory.New()}
	svc := NewSettingsService(store, access.New(), nil, time.Millisecond, logging.Discard(), nil)

	_, err := svc.Update(ctx, access.OptionFullAccessHosts, "10.0.0.5", "::1")
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, access.DefaultFullAccessHosts, svc.Configuration().FullAccessHosts().String())

	changes, err := store.ListSettingChanges(ctx, 0, 0)
	require.NoError(t, err)
	require.Empty(t, changes)
}
