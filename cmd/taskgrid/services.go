package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/api"
	"github.com/hy4ri/taskgrid/internal/auth"
	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/cloud"
	"github.com/hy4ri/taskgrid/internal/config"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/logging"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/storage"
	"github.com/hy4ri/taskgrid/internal/store"
)

// services are the long lived objects shared by the TUI and the commands.
type services struct {
	cfg     *config.Config
	dataDir string
	clock   clock.Clock
	logger  *zap.Logger
	tr      *i18n.Translator

	files *storage.FileStore
	saver *storage.Saver
	store *store.Store

	// source is nil when sync is not configured.
	source *auth.Source
	oauth  *auth.Flow
	cloud  *cloud.Manager
}

func setup() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, dataDir)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	tr, err := i18n.New(cfg.UI.Locale, logger)
	if err != nil {
		return nil, err
	}

	svc := &services{
		cfg:     cfg,
		dataDir: dataDir,
		clock:   clock.New(),
		logger:  logger,
		tr:      tr,
		files:   storage.NewFileStore(filepath.Join(dataDir, storage.FileName), logger),
	}
	svc.saver = storage.NewSaver(svc.clock, svc.files.Save, logger)
	svc.store = store.New(svc.loadState(),
		store.WithPersister(svc.saver),
		store.WithClock(svc.clock),
		store.WithLogger(logger),
		store.WithDefaults(svc.defaultState),
	)

	if err := svc.setupCloud(); err != nil {
		return nil, err
	}
	return svc, nil
}

// defaultState is the demo state of a new install.
func (s *services) defaultState(now time.Time) model.State {
	state := storage.DefaultState(now)
	if f := model.TimeFormat(s.cfg.UI.TimeFormat); f.Valid() {
		state.Settings.TimeFormat = f
	}
	return state
}

func (s *services) loadState() model.State {
	now := s.clock.Now()
	if _, err := os.Stat(s.files.Path()); os.IsNotExist(err) {
		return s.defaultState(now)
	}
	return s.files.Load(now)
}

// setupCloud wires Drive sync when an OAuth client is configured. Without
// one the manager stays idle.
func (s *services) setupCloud() error {
	opts := cloud.Options{
		Cache:    cloud.LoadFileCache(filepath.Join(s.dataDir, cloud.CacheFileName)),
		BaseName: s.cfg.Sync.BackupFileName,
		Clock:    s.clock,
		Logger:   s.logger.Named("cloud"),
	}
	if !s.cfg.HasOAuthCredentials() {
		s.cloud = cloud.NewManager(opts)
		return nil
	}

	conf, err := auth.OAuthConfig(s.cfg.Sync)
	if err != nil {
		return err
	}
	s.source = auth.NewSource(conf, auth.Store{Secrets: config.Secrets{Dir: s.dataDir}}, s.clock, s.logger.Named("auth"))
	s.oauth = &auth.Flow{Config: conf, Logger: s.logger.Named("auth")}

	backend, err := cloud.NewDriveBackend(context.Background(), cloud.DriveOptions{
		TokenSource: s.source,
		Users:       api.NewClient(s.source.AccessToken),
		Subject: func() string {
			tok, ok := s.source.Current()
			if !ok {
				return ""
			}
			return tok.Subject()
		},
		FolderID: s.cfg.Sync.BackupFolderID,
	})
	if err != nil {
		return err
	}
	opts.Backend = backend
	opts.Auth = s.source
	s.cloud = cloud.NewManager(opts)
	return nil
}

// flow returns the sign-in flow printing its instructions to out.
func (s *services) flow(out io.Writer) *auth.Flow {
	f := *s.oauth
	f.Out = out
	return &f
}

// Close writes pending changes and flushes the log.
func (s *services) Close() {
	s.saver.Flush()
	_ = s.logger.Sync()
}
