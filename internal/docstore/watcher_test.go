package docstore

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/testutil"
	"github.com/starford/visproject/internal/tree"
)

func TestWatch_ReloadsExternalEdits(t *testing.T) {
	dir, fs := testutil.TestData(t)
	trees := NewTreeStore(fs, "", testutil.Logger())
	settings := NewSettingsStore(fs, "", testutil.Logger())
	_ = trees.Load()
	_ = settings.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, testutil.Logger(), trees, settings) }()
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, DefaultTreeFile), []byte(`{"id":"root","name":"Other host","children":[]}`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, DefaultSettingsFile), []byte(`{"timeline_num_segments": 3}`), 0o644)

	testutil.Eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		root, _ := trees.Snapshot()
		return root.Name == "Other host"
	}, "tree edit not picked up")
	testutil.Eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return settings.Get().TimelineNumSegments == 3
	}, "settings edit not picked up")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop")
	}
}

func TestWatch_IgnoresSelfWrites(t *testing.T) {
	dir, fs := testutil.TestData(t)
	trees := NewTreeStore(fs, "", testutil.Logger())
	_ = trees.Load()

	var notified atomic.Int32
	trees.Subscribe(func(*models.Node) { notified.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, dir, testutil.Logger(), trees)
	time.Sleep(100 * time.Millisecond)

	_, _ = trees.Mutate("add", func(r *models.Node) error {
		_, err := tree.AddChild(r, models.RootID, "mine")
		return err
	})
	time.Sleep(500 * time.Millisecond)

	// Only the mutation itself notifies; the watcher's reload is a no-op.
	if notified.Load() != 1 {
		t.Errorf("notifications = %d, want 1", notified.Load())
	}
}
