// Package studyservice coordinates the tree and settings documents, the
// record store, the active timer session and the derived statistics.
package studyservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/visproject/internal/docstore"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/records"
	"github.com/starford/visproject/internal/session"
	"github.com/starford/visproject/internal/sse"
	"github.com/starford/visproject/internal/tree"
)

// Notifier receives change events for connected clients.
type Notifier interface {
	Notify(kind string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, any) {}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier sets the change event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service is the single entry point used by the HTTP and MCP hosts.
type Service struct {
	trees    *docstore.TreeStore
	settings *docstore.SettingsStore
	records  records.Store
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time

	mu     sync.Mutex
	active *session.Session
}

// New creates a service over loaded stores.
func New(trees *docstore.TreeStore, settings *docstore.SettingsStore, recs records.Store, opts ...Option) *Service {
	s := &Service{
		trees:    trees,
		settings: settings,
		records:  recs,
		logger:   slog.Default(),
		notifier: nopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	trees.Subscribe(func(root *models.Node) {
		s.notifier.Notify(sse.EventTreeUpdated, map[string]int{"nodes": tree.Count(root)})
	})
	settings.Subscribe(func(cfg models.Settings) {
		s.notifier.Notify(sse.EventSettingsUpdated, cfg)
	})
	return s
}

// Status is the health view exposed to hosts.
type Status struct {
	Document docstore.Health `json:"document"`
	Settings docstore.Health `json:"settings"`
	Session  *SessionView    `json:"session,omitempty"`
}

// Status reports the health of both documents and the active session.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{Document: s.trees.Health(), Settings: s.settings.Health()}
	if v, ok := s.Session(ctx); ok {
		st.Session = &v
	}
	return st
}

// Settings returns the current settings.
func (s *Service) Settings(_ context.Context) models.Settings {
	return s.settings.Get()
}

// UpdateSettings validates, saves and applies cfg. The tree is laid out
// again when spacing changed.
func (s *Service) UpdateSettings(_ context.Context, cfg models.Settings) (models.Settings, error) {
	prev := s.settings.Get()
	saved, err := s.settings.Update(cfg)
	if err != nil {
		return models.Settings{}, err
	}
	if prev.TreeXOffset != saved.TreeXOffset || prev.TreeYOffset != saved.TreeYOffset {
		if _, err := s.mutate("layout", func(*models.Node) error { return nil }); err != nil {
			s.logger.Warn("studyservice: relayout failed", slog.String("error", err.Error()))
		}
	}
	return saved, nil
}
