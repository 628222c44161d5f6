// internal/session/session.go
//
// A session wires one project's configuration into running components:
// diagnostic logger, storage backend, draft autosaver, stage orchestrator,
// suggestion index, exporter and journey logbook. Both the terminal host
// and the command-line companion open one.

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kingrea/brief/internal/config"
	"github.com/kingrea/brief/internal/export"
	"github.com/kingrea/brief/internal/logbook"
	"github.com/kingrea/brief/internal/logging"
	"github.com/kingrea/brief/internal/store"
	"github.com/kingrea/brief/internal/suggest"
	"github.com/kingrea/brief/internal/wizard"
)

// Session holds the components of an open project.
type Session struct {
	Config    *config.Config
	Logger    *zap.Logger
	Logbook   *logbook.Logbook
	Store     store.Store
	Autosaver *store.Autosaver
	Wizard    *wizard.Orchestrator
	Suggest   *suggest.Index
	Exporter  *export.Exporter
	Format    export.Format

	notify  func(wizard.Notice)
	store   store.Store
	closers []func() error
}

// Option customizes Open.
type Option func(*Session)

// WithNotifier receives orchestrator notices and background autosave
// failures. Autosave failures arrive from a timer goroutine.
func WithNotifier(fn func(wizard.Notice)) Option {
	return func(s *Session) {
		s.notify = fn
	}
}

// WithStore bypasses the configured backend.
func WithStore(st store.Store) Option {
	return func(s *Session) {
		s.store = st
	}
}

// Open initializes projectDir/.brief if needed, builds every component and
// resumes the saved questionnaire.
func Open(ctx context.Context, projectDir string, opts ...Option) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := config.InitBriefDir(projectDir); err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	s.Config = cfg

	logger, err := logging.New(cfg.Project.Logging.Level, cfg.Project.Logging.Format, cfg.LogPath())
	if err != nil {
		return nil, err
	}
	s.Logger = logger
	s.closers = append(s.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Logbook = lb
	s.closers = append(s.closers, lb.Close)

	st := s.store
	if st == nil {
		if st, err = s.openStore(ctx); err != nil {
			s.Close(ctx)
			return nil, err
		}
	}
	s.Store = st

	s.Autosaver = store.NewAutosaver(st, cfg.Debounce(),
		store.WithLogger(logger.Named("autosave")),
		store.WithErrorHandler(func(err error) {
			s.Logbook.Error("Draft could not be saved: %v", err)
			s.emit(wizard.Notice{Severity: wizard.SeverityError, Message: "draft could not be saved", Err: err})
		}))

	s.Wizard, err = wizard.New(st,
		wizard.WithLogger(logger.Named("wizard")),
		wizard.WithAutosaver(s.Autosaver),
		wizard.WithNotifier(s.onNotice))
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	if err := s.Wizard.Resume(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}

	s.Suggest = suggest.New(suggest.WithTemplates(cfg.SuggestionTemplates()))
	s.Format, err = export.ParseFormat(cfg.Project.Export.Format)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Exporter = export.New(cfg.ExportDir(), export.WithLogger(logger.Named("export")))

	done, total := s.Wizard.Progress()
	logger.Info("session opened",
		zap.String("project", cfg.ProjectDir),
		zap.String("backend", cfg.Project.Storage.Backend),
		zap.Int("submitted", done),
		zap.Int("stages", total))
	lb.Info("Session opened · %d/%d stages answered · %s", done, total, s.Wizard.Position())
	return s, nil
}

func (s *Session) openStore(ctx context.Context) (store.Store, error) {
	storage := s.Config.Project.Storage
	switch storage.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     storage.Redis.Addr,
			Password: storage.Redis.Password,
			DB:       storage.Redis.DB,
		})
		rs := store.NewRedisStore(client, store.WithPrefix(storage.Redis.Prefix))
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("session: redis %s: %w", storage.Redis.Addr, err)
		}
		s.closers = append(s.closers, rs.Close)
		return rs, nil
	default:
		return store.NewFileStore(s.Config.StateDir()), nil
	}
}

func (s *Session) onNotice(n wizard.Notice) {
	switch n.Severity {
	case wizard.SeverityError:
		s.Logbook.Error("%s", describe(n))
	case wizard.SeverityWarning:
		s.Logbook.Warn("%s", describe(n))
	default:
		s.Logbook.Info("%s", describe(n))
	}
	s.emit(n)
}

func (s *Session) emit(n wizard.Notice) {
	if s.notify != nil {
		s.notify(n)
	}
}

func describe(n wizard.Notice) string {
	msg := n.Message
	if n.Stage != "" {
		msg = fmt.Sprintf("%s · %s", n.Stage.Title(), msg)
	}
	if n.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, n.Err)
	}
	return msg
}

// Export assembles the current record and writes it in the configured
// format. It returns the written path.
func (s *Session) Export() (string, error) {
	return s.ExportAs(s.Format, "")
}

// ExportAs assembles the record and writes it in format. An empty path
// uses the export directory and the document's file name.
func (s *Session) ExportAs(format export.Format, path string) (string, error) {
	doc, err := s.Wizard.Assemble()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = s.Exporter.Path(doc, format)
	}
	if err := s.Exporter.WriteFile(doc, format, path); err != nil {
		return "", err
	}
	s.Logbook.Info("Document exported · %s", path)
	return path, nil
}

// Close flushes pending drafts and releases resources.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.Autosaver != nil {
		if err := s.Autosaver.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Logbook != nil {
		s.Logbook.Info("Session closed")
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
