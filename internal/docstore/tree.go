// Package docstore owns the in-memory tree and settings documents and their
// load/save boundaries on disk.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/checksum"
	"github.com/starford/visproject/internal/metrics"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/storage"
	"github.com/starford/visproject/internal/tree"
)

// DefaultTreeFile is the tree document name inside the data directory.
const DefaultTreeFile = "data.json"

// Health describes the state of a document as last loaded.
type Health struct {
	Malformed bool   `json:"malformed"`
	Reason    string `json:"reason,omitempty"`
	Backup    string `json:"backup,omitempty"`
	Repairs   int    `json:"repairs"`
}

// TreeStore holds the project tree. Every mutation is applied to a copy and
// persisted before it becomes visible, so a failed operation leaves the
// tree unchanged.
type TreeStore struct {
	store  storage.Provider
	name   string
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	root          *models.Node
	sum           string
	health        Health
	pendingBackup bool
	listeners     []func(root *models.Node)
}

// NewTreeStore returns a store for the document name in store. Call Load
// before use.
func NewTreeStore(store storage.Provider, name string, logger *slog.Logger) *TreeStore {
	if name == "" {
		name = DefaultTreeFile
	}
	return &TreeStore{
		store:  store,
		name:   name,
		logger: logger,
		now:    time.Now,
		root:   models.NewRoot(),
	}
}

// Name returns the document file name.
func (s *TreeStore) Name() string { return s.name }

// Load reads the document from disk. A missing document yields the default
// tree. A malformed document also yields the default tree, is reported by
// Health and is preserved on disk until the first save moves it aside.
func (s *TreeStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Read(s.name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.root, s.sum, s.health = models.NewRoot(), "", Health{}
		metrics.TreeReloads.WithLabelValues("missing").Inc()
		s.logger.Info("docstore: no tree document, starting empty", slog.String("file", s.name))
		return nil
	case err != nil:
		return fmt.Errorf("docstore: load tree: %w", err)
	}

	root, fixes, err := decodeTree(data)
	if err != nil {
		s.root, s.sum = models.NewRoot(), ""
		s.health = Health{Malformed: true, Reason: err.Error()}
		s.pendingBackup = true
		metrics.TreeReloads.WithLabelValues("malformed").Inc()
		s.logger.Error("docstore: malformed tree document, using default tree",
			slog.String("file", s.name), slog.String("error", err.Error()))
		return nil
	}
	if fixes > 0 {
		s.logger.Warn("docstore: repaired tree document", slog.String("file", s.name), slog.Int("repairs", fixes))
	}
	s.root, s.sum = root, checksum.Sum(data)
	s.health = Health{Repairs: fixes}
	metrics.TreeReloads.WithLabelValues("loaded").Inc()
	return nil
}

// Reload re-reads the document after an external edit. It is a no-op when
// the file content matches the last load or save. A malformed edit keeps the
// current tree.
func (s *TreeStore) Reload() (bool, error) {
	s.mu.Lock()
	changed, err := s.syncLocked()
	var snap *models.Node
	if changed {
		snap = s.root.Clone()
	}
	listeners := s.listeners
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, apperr.ErrMalformedDocument) {
			metrics.TreeReloads.WithLabelValues("rejected").Inc()
		}
		return false, fmt.Errorf("docstore: reload tree: %w", err)
	}
	if !changed {
		return false, nil
	}
	metrics.TreeReloads.WithLabelValues("external").Inc()
	s.logger.Info("docstore: tree reloaded from disk", slog.String("file", s.name))
	notify(listeners, snap)
	return true, nil
}

// Snapshot returns a deep copy of the current tree and its checksum.
func (s *TreeStore) Snapshot() (*models.Node, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root.Clone(), s.sum
}

// Health returns the document health as of the last load.
func (s *TreeStore) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// outside the store lock.
func (s *TreeStore) Subscribe(fn func(root *models.Node)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Mutate applies fn to a copy of the tree, saves it and publishes it. op
// labels the mutation in metrics. When fn fails nothing changes. A save made
// by another process since the last load is adopted first, so fn always
// runs against the document as it is on disk.
func (s *TreeStore) Mutate(op string, fn func(root *models.Node) error) (*models.Node, error) {
	var snap *models.Node
	listeners, synced, err := s.update(func() error {
		next := s.root.Clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := s.saveLocked(next); err != nil {
			return err
		}
		snap = next.Clone()
		return nil
	})
	if err != nil {
		if synced != nil {
			notify(listeners, synced)
		}
		return nil, err
	}

	metrics.TreeMutations.WithLabelValues(op).Inc()
	notify(listeners, snap)
	return snap, nil
}

// Replace overwrites the whole document. A non-empty ifMatch must equal the
// checksum of the document on disk, otherwise apperr.ErrConflict is
// returned. prepare runs on the repaired document before it is saved.
func (s *TreeStore) Replace(doc *models.Node, ifMatch string, prepare func(*models.Node)) (*models.Node, error) {
	root, fixes := tree.Repair(doc.Clone())
	if prepare != nil {
		prepare(root)
	}

	var snap *models.Node
	listeners, synced, err := s.update(func() error {
		if ifMatch != "" && ifMatch != s.sum {
			return fmt.Errorf("docstore: replace tree: %w", apperr.ErrConflict)
		}
		if err := s.saveLocked(root); err != nil {
			return err
		}
		s.health.Repairs = fixes
		snap = root.Clone()
		return nil
	})
	if err != nil {
		if synced != nil {
			notify(listeners, synced)
		}
		return nil, err
	}

	metrics.TreeMutations.WithLabelValues("replace").Inc()
	notify(listeners, snap)
	return snap, nil
}

// update runs apply holding s.mu and the cross-process document lock, after
// catching up with the file on disk. synced is a snapshot of the adopted
// tree when another process had saved in between, nil otherwise.
func (s *TreeStore) update(apply func() error) (listeners []func(*models.Node), synced *models.Node, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.store.Lock(s.name)
	if err != nil {
		return nil, nil, fmt.Errorf("docstore: lock tree: %w", err)
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn("docstore: unlock tree", slog.String("error", err.Error()))
		}
	}()

	changed, err := s.syncLocked()
	if err != nil {
		if !errors.Is(err, apperr.ErrMalformedDocument) {
			return nil, nil, fmt.Errorf("docstore: sync tree: %w", err)
		}
		s.logger.Warn("docstore: tree document on disk is malformed, keeping current tree",
			slog.String("file", s.name), slog.String("error", err.Error()))
	}
	if changed {
		synced = s.root.Clone()
		metrics.TreeReloads.WithLabelValues("external").Inc()
		s.logger.Info("docstore: adopted tree saved by another process", slog.String("file", s.name))
	}
	return s.listeners, synced, apply()
}

// syncLocked adopts the document on disk when its checksum differs from
// the last load or save. A missing document changes nothing. A malformed
// one keeps the current tree and is moved aside by the next save. Caller
// holds s.mu.
func (s *TreeStore) syncLocked() (bool, error) {
	data, err := s.store.Read(s.name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	sum := checksum.Sum(data)
	if sum == s.sum {
		return false, nil
	}
	root, fixes, err := decodeTree(data)
	if err != nil {
		s.pendingBackup = true
		return false, err
	}
	s.root, s.sum = root, sum
	s.health = Health{Repairs: fixes}
	s.pendingBackup = false
	return true, nil
}

// saveLocked persists root and makes it current. Caller holds s.mu and the
// document lock.
func (s *TreeStore) saveLocked(root *models.Node) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: encode tree: %w", err)
	}
	if s.pendingBackup {
		if err := s.backupLocked(); err != nil {
			return err
		}
	}
	if err := s.store.Write(s.name, data); err != nil {
		return fmt.Errorf("docstore: save tree: %w", err)
	}
	s.root, s.sum = root, checksum.Sum(data)
	return nil
}

// backupLocked moves a malformed document aside before it is overwritten.
func (s *TreeStore) backupLocked() error {
	backup, err := backupDocument(s.store, s.name, s.now())
	if err != nil {
		return fmt.Errorf("docstore: backup tree: %w", err)
	}
	if backup != "" {
		s.health.Backup = backup
		s.logger.Warn("docstore: malformed tree document preserved", slog.String("backup", backup))
	}
	s.pendingBackup = false
	return nil
}

// backupDocument renames name to name.corrupt-<unix> if it exists and
// returns the new name.
func backupDocument(store storage.Provider, name string, now time.Time) (string, error) {
	ok, err := store.Exists(name)
	if err != nil || !ok {
		return "", err
	}
	backup := fmt.Sprintf("%s.corrupt-%d", name, now.Unix())
	if err := store.Rename(name, backup); err != nil {
		return "", err
	}
	return backup, nil
}

func decodeTree(data []byte) (*models.Node, int, error) {
	var root *models.Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperr.ErrMalformedDocument, err)
	}
	root, fixes := tree.Repair(root)
	return root, fixes, nil
}

func notify[T any](listeners []func(T), v T) {
	for _, fn := range listeners {
		fn(v)
	}
}
