package cloud

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/hy4ri/taskgrid/internal/api"
	"github.com/hy4ri/taskgrid/internal/auth"
	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/merge"
	"github.com/hy4ri/taskgrid/internal/model"
)

const (
	// PushDelay is how long state changes are collected before a push.
	PushDelay = 2 * time.Second

	// DefaultBaseName is the backup file name before the account suffix.
	DefaultBaseName = "taskgrid-backup"
)

// ErrDisabled is returned by operations on a manager without a backend.
var ErrDisabled = errors.New("cloud sync is not configured")

// Authenticator holds the account credentials.
type Authenticator interface {
	Authenticated() bool
	AccessToken(ctx context.Context) (string, error)
	Clear() error
}

// Options configures a Manager.
type Options struct {
	// Backend is nil when sync is not configured.
	Backend  Backend
	Auth     Authenticator
	Cache    *FileCache
	BaseName string
	Clock    clock.Clock
	Logger   *zap.Logger
	// Timeout bounds a background push.
	Timeout time.Duration
}

// Manager pushes debounced snapshots to the backend and restores from it.
type Manager struct {
	backend  Backend
	auth     Authenticator
	cache    *FileCache
	baseName string
	clock    clock.Clock
	logger   *zap.Logger
	timeout  time.Duration

	mu            sync.Mutex
	status        Status
	listeners     map[int]func(Status)
	nextListener  int
	accountID     string
	pending       *model.State
	timer         clock.Timer
	// pushSlot holds one token while an upload runs.
	pushSlot      chan struct{}
	restoring     bool
	lastRestoreAt string
}

// NewManager returns a manager in status idle, or disconnected once a
// backend is configured.
func NewManager(opts Options) *Manager {
	m := &Manager{
		backend:   opts.Backend,
		auth:      opts.Auth,
		cache:     opts.Cache,
		baseName:  opts.BaseName,
		clock:     opts.Clock,
		logger:    opts.Logger,
		timeout:   opts.Timeout,
		listeners: map[int]func(Status){},
		pushSlot:  make(chan struct{}, 1),
	}
	if m.cache == nil {
		m.cache = LoadFileCache("")
	}
	if m.baseName == "" {
		m.baseName = DefaultBaseName
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.timeout <= 0 {
		m.timeout = time.Minute
	}
	m.status = Status{State: StateIdle}
	if m.backend == nil {
		m.status.Reason = ReasonNotConfigured
	} else {
		m.status.State = StateDisconnected
		m.status.Authenticated = m.authenticated()
	}
	return m
}

// Enabled reports whether a backend is configured.
func (m *Manager) Enabled() bool {
	return m.backend != nil
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnStatusChange registers fn, calls it with the current status and returns
// a func that unregisters it.
func (m *Manager) OnStatusChange(fn func(Status)) func() {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	current := m.status
	m.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) setStatus(state State, reason Reason, cause error) {
	m.mu.Lock()
	m.status.State = state
	m.status.Reason = reason
	m.status.Detail = ""
	if cause != nil {
		m.status.Detail = cause.Error()
	}
	m.status.Authenticated = m.authenticated()
	current := m.status
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
}

func (m *Manager) authenticated() bool {
	return m.auth != nil && m.auth.Authenticated()
}

// Init checks the stored credentials, refreshing an expired access token.
func (m *Manager) Init(ctx context.Context) {
	if m.backend == nil {
		return
	}
	if !m.authenticated() {
		m.setStatus(StateDisconnected, ReasonNone, nil)
		return
	}
	m.setStatus(StateAuthenticating, ReasonNone, nil)
	if _, err := m.auth.AccessToken(ctx); err != nil {
		m.fail(err, ReasonAuthFailed)
		return
	}
	m.setStatus(StateConnected, ReasonNone, nil)
}

// Login runs signIn and reports the outcome as status.
func (m *Manager) Login(ctx context.Context, signIn func(ctx context.Context) error) error {
	if m.backend == nil {
		return ErrDisabled
	}
	m.setStatus(StateAuthenticating, ReasonNone, nil)
	if err := signIn(ctx); err != nil {
		m.logger.Error("sign-in failed", zap.Error(err))
		m.setStatus(StateError, ReasonAuthFailed, err)
		return err
	}
	m.mu.Lock()
	m.accountID = ""
	m.mu.Unlock()
	m.setStatus(StateConnected, ReasonNone, nil)
	return nil
}

// Disconnect forgets the credentials. Backups stay in the cloud.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	m.accountID = ""
	m.pending = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	var err error
	if m.auth != nil {
		err = m.auth.Clear()
	}
	if m.backend == nil {
		return err
	}
	m.setStatus(StateDisconnected, ReasonNone, nil)
	return err
}

// SchedulePush queues state for upload after PushDelay. Later snapshots
// replace a queued one without restarting the timer. A push already running
// is never cancelled; the queued snapshot follows it.
func (m *Manager) SchedulePush(state model.State) {
	if m.backend == nil || !m.authenticated() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &state
	if m.timer != nil {
		return
	}
	m.timer = m.clock.AfterFunc(PushDelay, m.firePush)
}

func (m *Manager) firePush() {
	m.mu.Lock()
	if m.pending == nil {
		m.timer = nil
		m.mu.Unlock()
		return
	}
	select {
	case m.pushSlot <- struct{}{}:
	default:
		// Another upload is running; try again once it had time to finish.
		m.timer = m.clock.AfterFunc(PushDelay, m.firePush)
		m.mu.Unlock()
		return
	}
	m.timer = nil
	state := m.pending
	m.pending = nil
	m.mu.Unlock()
	defer m.releasePush()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.push(ctx, *state); err != nil {
		m.logger.Warn("scheduled push failed", zap.Error(err))
	}
}

func (m *Manager) releasePush() {
	<-m.pushSlot
}

// PushNow uploads state and returns the backup time. It waits for an
// upload already running to finish first.
func (m *Manager) PushNow(ctx context.Context, state model.State) (string, error) {
	if m.backend == nil {
		return "", ErrDisabled
	}
	select {
	case m.pushSlot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer m.releasePush()
	if err := m.push(ctx, state); err != nil {
		return "", err
	}
	return m.Status().LastSyncedAt, nil
}

func (m *Manager) push(ctx context.Context, state model.State) error {
	if !m.authenticated() {
		m.setStatus(StateDisconnected, ReasonNone, nil)
		return auth.ErrNotAuthenticated
	}
	m.setStatus(StateSyncing, ReasonNone, nil)

	account, err := m.account(ctx)
	if err != nil {
		m.fail(err, ReasonAuthFailed)
		return err
	}
	fileID, err := m.ensureFile(ctx, account, true)
	if err != nil {
		m.fail(err, ReasonFileFailed)
		return err
	}

	syncedAt := m.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	data, err := EncodeBackup(state, syncedAt)
	if err != nil {
		m.fail(err, ReasonPushFailed)
		return err
	}

	err = m.backend.Upload(ctx, fileID, data)
	if errors.Is(err, ErrFileNotFound) {
		// The cached file was deleted remotely.
		m.logger.Info("backup file vanished, recreating", zap.String("file_id", fileID))
		_ = m.cache.Delete(account)
		if fileID, err = m.ensureFile(ctx, account, true); err == nil {
			err = m.backend.Upload(ctx, fileID, data)
		}
	}
	if err != nil {
		m.fail(err, ReasonPushFailed)
		return err
	}

	m.mu.Lock()
	m.status.LastSyncedAt = syncedAt
	// Our own upload must not come back as a remote change.
	m.lastRestoreAt = syncedAt
	m.mu.Unlock()

	m.logger.Info("backup uploaded", zap.String("file_id", fileID), zap.String("synced_at", syncedAt))
	m.setStatus(StateConnected, ReasonNone, nil)
	return nil
}

// Pull downloads the backup of the signed-in account. It returns nil when
// there is no backup or it holds no valid state.
func (m *Manager) Pull(ctx context.Context) (*Backup, error) {
	if m.backend == nil {
		return nil, ErrDisabled
	}
	if !m.authenticated() {
		return nil, auth.ErrNotAuthenticated
	}
	account, err := m.account(ctx)
	if err != nil {
		m.fail(err, ReasonAuthFailed)
		return nil, err
	}
	fileID, err := m.ensureFile(ctx, account, false)
	if err != nil {
		m.fail(err, ReasonFileFailed)
		return nil, err
	}
	if fileID == "" {
		return nil, nil
	}

	data, err := m.backend.Download(ctx, fileID)
	if errors.Is(err, ErrFileNotFound) {
		_ = m.cache.Delete(account)
		return nil, nil
	}
	if err != nil {
		m.fail(err, ReasonPullFailed)
		return nil, err
	}

	backup, err := DecodeBackup(data)
	if err != nil {
		m.logger.Warn("ignoring unreadable backup", zap.String("file_id", fileID), zap.Error(err))
		return nil, nil
	}
	return backup, nil
}

// Restore pulls the backup and merges it into local. It returns nil when
// there is nothing new to apply: no backup, a backup already applied (unless
// force is set) or another restore still running.
func (m *Manager) Restore(ctx context.Context, local model.State, force bool) (*model.State, error) {
	m.mu.Lock()
	if m.restoring {
		m.mu.Unlock()
		return nil, nil
	}
	m.restoring = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.restoring = false
		m.mu.Unlock()
	}()

	backup, err := m.Pull(ctx)
	if err != nil || backup == nil || backup.State == nil {
		return nil, err
	}

	m.mu.Lock()
	lastSeen := m.lastRestoreAt
	m.mu.Unlock()
	if !merge.ShouldApply(lastSeen, backup.Meta.SyncedAt, force) {
		return nil, nil
	}

	merged := merge.State(local, *backup.State)
	m.mu.Lock()
	m.lastRestoreAt = backup.Meta.SyncedAt
	if backup.Meta.SyncedAt != "" {
		m.status.LastSyncedAt = backup.Meta.SyncedAt
	}
	m.mu.Unlock()

	m.logger.Info("backup restored",
		zap.String("synced_at", backup.Meta.SyncedAt),
		zap.Int("tasks", len(merged.Tasks)),
		zap.Int("projects", len(merged.Projects)))
	return &merged, nil
}

func (m *Manager) account(ctx context.Context) (string, error) {
	m.mu.Lock()
	cached := m.accountID
	m.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	if _, err := m.auth.AccessToken(ctx); err != nil {
		return "", err
	}
	id, err := m.backend.AccountID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("could not determine the sync account")
	}

	m.mu.Lock()
	m.accountID = id
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) ensureFile(ctx context.Context, account string, create bool) (string, error) {
	if id, ok := m.cache.Get(account); ok && id != "" {
		return id, nil
	}

	name := BackupName(m.baseName, account)
	id, err := m.backend.FindFile(ctx, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		if !create {
			return "", nil
		}
		if id, err = m.backend.CreateFile(ctx, name); err != nil {
			return "", err
		}
		m.logger.Info("backup file created", zap.String("name", name), zap.String("file_id", id))
	}

	if err := m.cache.Set(account, id); err != nil {
		m.logger.Warn("failed to save file cache", zap.Error(err))
	}
	return id, nil
}

// fail reports err as status. Credential problems disconnect instead of
// erroring.
func (m *Manager) fail(err error, reason Reason) {
	m.logger.Error("sync failed", zap.String("reason", string(reason)), zap.Error(err))
	if sessionExpired(err) {
		m.setStatus(StateDisconnected, ReasonSessionExpired, err)
		return
	}
	m.setStatus(StateError, reason, err)
}

func sessionExpired(err error) bool {
	if errors.Is(err, auth.ErrNotAuthenticated) || errors.Is(err, auth.ErrNoRefreshToken) {
		return true
	}
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return true
	}
	apiErr, ok := api.IsAPIError(err)
	return ok && apiErr.IsUnauthorized()
}
