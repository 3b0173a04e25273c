package docstore

import (
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/storage"
	"github.com/starford/visproject/internal/testutil"
	"github.com/starford/visproject/internal/tree"
)

func newTreeStore(t *testing.T) (*TreeStore, *storage.FS) {
	t.Helper()
	_, fs := testutil.TestData(t)
	s := NewTreeStore(fs, "", testutil.Logger())
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, fs
}

func TestLoad_MissingGivesDefault(t *testing.T) {
	s, _ := newTreeStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	root, sum := s.Snapshot()
	if root.ID != models.RootID || root.Name != models.RootName || len(root.Children) != 0 {
		t.Errorf("default tree = %+v", root)
	}
	if sum != "" || s.Health().Malformed {
		t.Errorf("sum=%q health=%+v", sum, s.Health())
	}
}

func TestLoad_RepairsDocument(t *testing.T) {
	s, fs := newTreeStore(t)
	doc := `{"id":"","name":"R","children":[{"id":"x","name":"a","review_state":true},{"id":"x","name":"b","done_time":5}]}`
	_ = fs.Write(DefaultTreeFile, []byte(doc))
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	root, _ := s.Snapshot()
	if root.ID != models.RootID {
		t.Errorf("root id = %q", root.ID)
	}
	a, b := root.Children[0], root.Children[1]
	if a.ID == b.ID {
		t.Error("duplicate ids must be re-issued")
	}
	if a.ReviewPeriod() != 1 || a.Period == nil {
		t.Error("enrolled node without period should get period 1")
	}
	if b.DoneTime != nil {
		t.Error("done_time must be cleared for nodes not done")
	}
	if s.Health().Repairs < 3 {
		t.Errorf("repairs = %d", s.Health().Repairs)
	}
}

func TestLoad_MalformedFallsBackAndBacksUp(t *testing.T) {
	s, fs := newTreeStore(t)
	_ = fs.Write(DefaultTreeFile, []byte("{not json"))
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	h := s.Health()
	if !h.Malformed || h.Reason == "" {
		t.Fatalf("health = %+v", h)
	}
	root, _ := s.Snapshot()
	if root.ID != models.RootID || len(root.Children) != 0 {
		t.Errorf("fallback tree = %+v", root)
	}

	// The corrupt file survives until the first save moves it aside.
	if got, _ := fs.Read(DefaultTreeFile); string(got) != "{not json" {
		t.Fatalf("corrupt file touched before save: %q", got)
	}
	if _, err := s.Mutate("add", func(r *models.Node) error {
		_, err := tree.AddChild(r, models.RootID, "first")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	backup := DefaultTreeFile + ".corrupt-1700000000"
	if got, err := fs.Read(backup); err != nil || string(got) != "{not json" {
		t.Errorf("backup = %q, %v", got, err)
	}
	if s.Health().Backup != backup {
		t.Errorf("health backup = %q", s.Health().Backup)
	}
}

func TestMutate_PersistsAndNotifies(t *testing.T) {
	s, fs := newTreeStore(t)
	_ = s.Load()

	var calls atomic.Int32
	s.Subscribe(func(root *models.Node) {
		calls.Add(1)
		if len(root.Children) != 1 {
			t.Errorf("listener saw %d children", len(root.Children))
		}
	})

	snap, err := s.Mutate("add", func(r *models.Node) error {
		_, err := tree.AddChild(r, models.RootID, "Go")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("listener calls = %d", calls.Load())
	}

	data, _ := fs.Read(DefaultTreeFile)
	var onDisk models.Node
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk.Children) != 1 || onDisk.Children[0].Name != "Go" || onDisk.Children[0].ID != snap.Children[0].ID {
		t.Errorf("on disk = %+v", onDisk)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("document should be pretty-printed")
	}
}

func TestMutate_ErrorLeavesTreeUnchanged(t *testing.T) {
	s, _ := newTreeStore(t)
	_ = s.Load()
	before, sumBefore := s.Snapshot()

	_, err := s.Mutate("delete", func(r *models.Node) error {
		r.Name = "changed"
		return tree.Delete(r, models.RootID)
	})
	if !errors.Is(err, apperr.ErrInvalidDeletion) {
		t.Fatalf("err = %v", err)
	}
	after, sumAfter := s.Snapshot()
	if after.Name != before.Name || sumAfter != sumBefore {
		t.Error("failed mutation must not change the tree")
	}
}

func TestReplace_IfMatch(t *testing.T) {
	s, _ := newTreeStore(t)
	_ = s.Load()
	_, _ = s.Mutate("add", func(r *models.Node) error {
		_, err := tree.AddChild(r, models.RootID, "a")
		return err
	})
	_, sum := s.Snapshot()

	doc := &models.Node{ID: "root", Name: "Replaced"}
	if _, err := s.Replace(doc, "stale", nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	got, err := s.Replace(doc, sum, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Replaced" || got.Children == nil {
		t.Errorf("replaced = %+v", got)
	}
	if _, err := s.Replace(doc, "", nil); err != nil {
		t.Errorf("unconditional replace: %v", err)
	}
}

func TestReload_SkipsSelfWriteAndReadsExternalEdit(t *testing.T) {
	s, fs := newTreeStore(t)
	_ = s.Load()
	_, _ = s.Mutate("add", func(r *models.Node) error {
		_, err := tree.AddChild(r, models.RootID, "a")
		return err
	})

	changed, err := s.Reload()
	if err != nil || changed {
		t.Fatalf("self-write reload = %v, %v", changed, err)
	}

	_ = fs.Write(DefaultTreeFile, []byte(`{"id":"root","name":"Edited","children":[]}`))
	changed, err = s.Reload()
	if err != nil || !changed {
		t.Fatalf("external reload = %v, %v", changed, err)
	}
	root, _ := s.Snapshot()
	if root.Name != "Edited" {
		t.Errorf("name = %q", root.Name)
	}

	_ = fs.Write(DefaultTreeFile, []byte(`[]`))
	if _, err := s.Reload(); !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Errorf("malformed reload err = %v", err)
	}
	root, _ = s.Snapshot()
	if root.Name != "Edited" {
		t.Error("malformed edit must keep the current tree")
	}
}

func addChild(t *testing.T, s *TreeStore, name string) *models.Node {
	t.Helper()
	root, err := s.Mutate("add", func(r *models.Node) error {
		_, err := tree.AddChild(r, models.RootID, name)
		return err
	})
	if err != nil {
		t.Fatalf("add %q: %v", name, err)
	}
	return root
}

func childNames(root *models.Node) []string {
	names := make([]string, 0, len(root.Children))
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	return names
}

func TestMutate_AdoptsSaveFromOtherStore(t *testing.T) {
	_, fs := testutil.TestData(t)
	mcp := NewTreeStore(fs, "", testutil.Logger())
	web := NewTreeStore(fs, "", testutil.Logger())
	if err := mcp.Load(); err != nil {
		t.Fatal(err)
	}
	if err := web.Load(); err != nil {
		t.Fatal(err)
	}

	var seen atomic.Int32
	web.Subscribe(func(*models.Node) { seen.Add(1) })

	addChild(t, mcp, "from-mcp")
	got := addChild(t, web, "from-http")

	if names := childNames(got); len(names) != 2 || names[0] != "from-mcp" || names[1] != "from-http" {
		t.Errorf("web tree children = %v", names)
	}
	data, _ := fs.Read(DefaultTreeFile)
	var onDisk models.Node
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if names := childNames(&onDisk); len(names) != 2 {
		t.Errorf("on disk children = %v", names)
	}
	if seen.Load() != 1 {
		t.Errorf("listener calls = %d", seen.Load())
	}

	// The other store picks the second save up on its next write.
	final := addChild(t, mcp, "third")
	if len(final.Children) != 3 {
		t.Errorf("mcp tree children = %v", childNames(final))
	}
}

func TestReplace_StaleTagAfterOtherStoreSaved(t *testing.T) {
	_, fs := testutil.TestData(t)
	a := NewTreeStore(fs, "", testutil.Logger())
	b := NewTreeStore(fs, "", testutil.Logger())
	_ = a.Load()
	_ = b.Load()
	addChild(t, b, "x")
	_, tag := b.Snapshot()

	addChild(t, a, "y")
	if _, err := b.Replace(&models.Node{ID: models.RootID, Name: "R"}, tag, nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	root, _ := b.Snapshot()
	if len(root.Children) != 2 {
		t.Errorf("b should have adopted a's save, children = %v", childNames(root))
	}
}

// gatedFS pauses the first Read after arm until release is closed.
type gatedFS struct {
	storage.Provider
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func (g *gatedFS) arm() {
	g.reached = make(chan struct{})
	g.release = make(chan struct{})
	g.armed.Store(true)
}

func (g *gatedFS) Read(name string) ([]byte, error) {
	data, err := g.Provider.Read(name)
	if g.armed.CompareAndSwap(true, false) {
		close(g.reached)
		<-g.release
	}
	return data, err
}

func TestReload_DoesNotRevertConcurrentMutate(t *testing.T) {
	_, base := testutil.TestData(t)
	gfs := &gatedFS{Provider: base}
	s := NewTreeStore(gfs, "", testutil.Logger())
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	addChild(t, s, "first")

	gfs.arm()
	reloaded := make(chan error, 1)
	go func() {
		_, err := s.Reload()
		reloaded <- err
	}()
	<-gfs.reached

	mutated := make(chan error, 1)
	go func() {
		_, err := s.Mutate("add", func(r *models.Node) error {
			_, err := tree.AddChild(r, models.RootID, "second")
			return err
		})
		mutated <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(gfs.release)

	if err := <-reloaded; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := <-mutated; err != nil {
		t.Fatalf("mutate: %v", err)
	}
	root, _ := s.Snapshot()
	if len(root.Children) != 2 {
		t.Errorf("children = %v, want first and second", childNames(root))
	}
}
