package cloud

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hy4ri/taskgrid/internal/auth"
	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/model"
)

var epoch = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

type fakeAuth struct {
	mu       sync.Mutex
	signedIn bool
	err      error
}

func (a *fakeAuth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signedIn
}

func (a *fakeAuth) AccessToken(context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return "token", a.err
}

func (a *fakeAuth) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signedIn = false
	return nil
}

type fakeBackend struct {
	mu      sync.Mutex
	account string
	names   map[string]string
	files   map[string][]byte
	created int
	uploads [][]byte

	// block, when set, holds Upload until it is closed; started receives
	// one value per Upload call.
	block   chan struct{}
	started chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{account: "acct-1", names: map[string]string{}, files: map[string][]byte{}}
}

func (b *fakeBackend) AccountID(context.Context) (string, error) { return b.account, nil }

func (b *fakeBackend) FindFile(_ context.Context, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.names[name], nil
}

func (b *fakeBackend) CreateFile(_ context.Context, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	id := "file-" + name
	b.names[name] = id
	b.files[id] = []byte("{}")
	return id, nil
}

func (b *fakeBackend) Upload(_ context.Context, fileID string, data []byte) error {
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.files[fileID]; !ok {
		return ErrFileNotFound
	}
	b.files[fileID] = data
	b.uploads = append(b.uploads, data)
	return nil
}

func (b *fakeBackend) Download(_ context.Context, fileID string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[fileID]
	if !ok {
		return nil, ErrFileNotFound
	}
	return data, nil
}

func (b *fakeBackend) uploadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploads)
}

func (b *fakeBackend) lastUpload(t *testing.T) *Backup {
	t.Helper()
	b.mu.Lock()
	data := b.uploads[len(b.uploads)-1]
	b.mu.Unlock()
	backup, err := DecodeBackup(data)
	require.NoError(t, err)
	require.NotNil(t, backup)
	return backup
}

func stateWith(t *testing.T, titles ...string) model.State {
	t.Helper()
	s := model.EmptyState()
	for i, title := range titles {
		task, err := model.NewTask(model.TaskInput{ID: title, Title: title}, epoch.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		s.Tasks = append(s.Tasks, task)
	}
	return s
}

func newTestManager(t *testing.T, backend Backend) (*Manager, *clock.Manual, *fakeAuth) {
	t.Helper()
	c := clock.NewManual(epoch)
	a := &fakeAuth{signedIn: true}
	m := NewManager(Options{
		Backend: backend,
		Auth:    a,
		Cache:   LoadFileCache(filepath.Join(t.TempDir(), CacheFileName)),
		Clock:   c,
	})
	return m, c, a
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(Options{})
	assert.False(t, m.Enabled())
	assert.Equal(t, StateIdle, m.Status().State)
	assert.Equal(t, ReasonNotConfigured, m.Status().Reason)

	m.SchedulePush(model.EmptyState())
	_, err := m.Pull(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestManager_OnStatusChange(t *testing.T) {
	m, _, _ := newTestManager(t, newFakeBackend())

	var seen []State
	unsubscribe := m.OnStatusChange(func(s Status) { seen = append(seen, s.State) })
	require.Equal(t, []State{StateDisconnected}, seen, "current status is reported immediately")

	m.Init(context.Background())
	assert.Equal(t, []State{StateDisconnected, StateAuthenticating, StateConnected}, seen)

	unsubscribe()
	unsubscribe()
	m.setStatus(StateSyncing, ReasonNone, nil)
	assert.Len(t, seen, 3)
}

func TestManager_SchedulePushCoalesces(t *testing.T) {
	backend := newFakeBackend()
	m, c, _ := newTestManager(t, backend)

	m.SchedulePush(stateWith(t, "a"))
	c.Advance(time.Second)
	m.SchedulePush(stateWith(t, "a", "b"))
	c.Advance(time.Second)

	require.Equal(t, 1, backend.uploadCount())
	backup := backend.lastUpload(t)
	assert.Len(t, backup.State.Tasks, 2)
	assert.Equal(t, "2026-03-09T09:00:02.000Z", backup.Meta.SyncedAt)

	status := m.Status()
	assert.Equal(t, StateConnected, status.State)
	assert.Equal(t, backup.Meta.SyncedAt, status.LastSyncedAt)

	c.Advance(10 * time.Second)
	assert.Equal(t, 1, backend.uploadCount(), "no push without new changes")
}

func TestManager_CreatesFileOnce(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestManager(t, backend)

	_, err := m.PushNow(context.Background(), stateWith(t, "a"))
	require.NoError(t, err)
	_, err = m.PushNow(context.Background(), stateWith(t, "b"))
	require.NoError(t, err)

	assert.Equal(t, 1, backend.created)
	assert.Contains(t, backend.names, "taskgrid-backup-acct-1.json")
	id, ok := m.cache.Get("acct-1")
	assert.True(t, ok)
	assert.Equal(t, "file-taskgrid-backup-acct-1.json", id)
}

func TestManager_RecreatesVanishedFile(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestManager(t, backend)
	require.NoError(t, m.cache.Set("acct-1", "deleted-id"))

	_, err := m.PushNow(context.Background(), stateWith(t, "a"))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.created)
	id, _ := m.cache.Get("acct-1")
	assert.NotEqual(t, "deleted-id", id)
}

func TestManager_PushInFlightIsNotSuperseded(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})
	backend.started = make(chan struct{}, 4)
	m, c, _ := newTestManager(t, backend)

	m.SchedulePush(stateWith(t, "first"))
	done := make(chan struct{})
	go func() {
		c.Advance(PushDelay)
		close(done)
	}()
	<-backend.started

	m.SchedulePush(stateWith(t, "first", "second"))
	c.Advance(PushDelay)
	assert.Equal(t, 0, backend.uploadCount(), "second push waits for the first")

	close(backend.block)
	<-done
	require.Equal(t, 1, backend.uploadCount())
	assert.Len(t, backend.lastUpload(t).State.Tasks, 1)

	c.Advance(PushDelay)
	<-backend.started
	require.Equal(t, 2, backend.uploadCount())
	assert.Len(t, backend.lastUpload(t).State.Tasks, 2)
}

func TestManager_PushNowWaitsForScheduledUpload(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})
	backend.started = make(chan struct{}, 4)
	m, c, _ := newTestManager(t, backend)

	m.SchedulePush(stateWith(t, "scheduled"))
	done := make(chan struct{})
	go func() {
		c.Advance(PushDelay)
		close(done)
	}()
	<-backend.started

	type result struct {
		at  string
		err error
	}
	merged := stateWith(t, "scheduled", "merged")
	pushed := make(chan result, 1)
	go func() {
		at, err := m.PushNow(context.Background(), merged)
		pushed <- result{at, err}
	}()

	select {
	case <-backend.started:
		t.Fatal("a second upload started while the first was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(backend.block)
	<-done
	res := <-pushed
	require.NoError(t, res.err)
	assert.NotEmpty(t, res.at)
	require.Equal(t, 2, backend.uploadCount())
	assert.Len(t, backend.lastUpload(t).State.Tasks, 2, "the immediate push lands last")
}

func TestManager_Restore(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestManager(t, backend)

	id, err := backend.CreateFile(context.Background(), BackupName(DefaultBaseName, "acct-1"))
	require.NoError(t, err)
	remote := stateWith(t, "remote")
	data, err := EncodeBackup(remote, "2026-03-08T10:00:00.000Z")
	require.NoError(t, err)
	backend.files[id] = data

	local := stateWith(t, "local")
	merged, err := m.Restore(context.Background(), local, false)
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Len(t, merged.Tasks, 2)
	assert.Equal(t, "2026-03-08T10:00:00.000Z", m.Status().LastSyncedAt)

	again, err := m.Restore(context.Background(), local, false)
	require.NoError(t, err)
	assert.Nil(t, again, "same backup is not applied twice")

	forced, err := m.Restore(context.Background(), local, true)
	require.NoError(t, err)
	assert.NotNil(t, forced)
}

func TestManager_RestoreSkipsOwnPush(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestManager(t, backend)

	_, err := m.PushNow(context.Background(), stateWith(t, "a"))
	require.NoError(t, err)

	merged, err := m.Restore(context.Background(), stateWith(t, "a"), false)
	require.NoError(t, err)
	assert.Nil(t, merged)
}

func TestManager_PullEmpty(t *testing.T) {
	backend := newFakeBackend()
	m, _, _ := newTestManager(t, backend)

	backup, err := m.Pull(context.Background())
	require.NoError(t, err)
	assert.Nil(t, backup, "no file yet")
	assert.Zero(t, backend.created, "pull never creates a file")

	_, err = backend.CreateFile(context.Background(), BackupName(DefaultBaseName, "acct-1"))
	require.NoError(t, err)
	backup, err = m.Pull(context.Background())
	require.NoError(t, err)
	assert.Nil(t, backup, "fresh file holds {}")
}

func TestManager_ExpiredSessionDisconnects(t *testing.T) {
	backend := newFakeBackend()
	m, _, a := newTestManager(t, backend)
	a.err = auth.ErrNoRefreshToken

	_, err := m.PushNow(context.Background(), stateWith(t, "a"))
	assert.ErrorIs(t, err, auth.ErrNoRefreshToken)

	status := m.Status()
	assert.Equal(t, StateDisconnected, status.State)
	assert.Equal(t, ReasonSessionExpired, status.Reason)
	assert.Zero(t, backend.uploadCount())
}

func TestManager_LoginAndDisconnect(t *testing.T) {
	backend := newFakeBackend()
	m, c, a := newTestManager(t, backend)
	a.signedIn = false

	err := m.Login(context.Background(), func(context.Context) error {
		a.signedIn = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateConnected, m.Status().State)
	assert.True(t, m.Status().Authenticated)

	m.SchedulePush(stateWith(t, "a"))
	require.NoError(t, m.Disconnect())
	c.Advance(PushDelay)

	assert.Zero(t, backend.uploadCount(), "disconnect drops the queued push")
	assert.Equal(t, StateDisconnected, m.Status().State)
	assert.False(t, a.Authenticated())
}

func TestManager_LoginFailure(t *testing.T) {
	m, _, _ := newTestManager(t, newFakeBackend())
	err := m.Login(context.Background(), func(context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StateError, m.Status().State)
	assert.Equal(t, ReasonAuthFailed, m.Status().Reason)
}
