package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/starford/visproject/internal/models"
)

func reviewNode(id string, period int, last int64) *models.Node {
	return &models.Node{ID: id, Name: id, ReviewState: true, Period: &period, LastReview: last, Children: []*models.Node{}}
}

func TestDueScore_NeverReviewed(t *testing.T) {
	n := reviewNode("x", 7, 0)
	score, ok := DueScore(n, time.Unix(700000, 0))
	if !ok {
		t.Fatal("enrolled node should have a score")
	}
	want := 700000.0 / (7 * 86400)
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
	if math.Abs(score-1.157) > 0.001 {
		t.Errorf("score = %v, want ~1.157", score)
	}
}

func TestDueScore_NotEnrolled(t *testing.T) {
	n := &models.Node{ID: "x"}
	if _, ok := DueScore(n, time.Now()); ok {
		t.Error("node without review_state must not be scored")
	}
}

func TestDueScore_Monotonic(t *testing.T) {
	now := time.Unix(10_000_000, 0)

	older, _ := DueScore(reviewNode("a", 3, 9_000_000), now)
	newer, _ := DueScore(reviewNode("b", 3, 9_500_000), now)
	if older <= newer {
		t.Errorf("longer since review should score higher: %v <= %v", older, newer)
	}

	short, _ := DueScore(reviewNode("c", 1, 9_000_000), now)
	long, _ := DueScore(reviewNode("d", 14, 9_000_000), now)
	if short <= long {
		t.Errorf("shorter period should score higher: %v <= %v", short, long)
	}
}

func TestSuggest_OrderAndLimit(t *testing.T) {
	now := time.Unix(2_000_000, 0)
	root := &models.Node{ID: "root", Children: []*models.Node{
		reviewNode("fresh", 7, 1_990_000),
		{ID: "plain", Children: []*models.Node{}},
		reviewNode("stale", 1, 1_000_000),
		reviewNode("never", 30, 0),
	}}

	got := Suggest(root, now, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Node.ID != "stale" || got[1].Node.ID != "never" {
		t.Errorf("order = %s, %s", got[0].Node.ID, got[1].Node.ID)
	}

	all := Suggest(root, now, 0)
	if len(all) != 3 {
		t.Errorf("unlimited len = %d, want 3", len(all))
	}
}

func TestSuggest_TiesKeepTraversalOrder(t *testing.T) {
	now := time.Unix(500_000, 0)
	root := &models.Node{ID: "root", Children: []*models.Node{
		reviewNode("first", 2, 100),
		reviewNode("second", 2, 100),
	}}
	got := Suggest(root, now, 10)
	if got[0].Node.ID != "first" || got[1].Node.ID != "second" {
		t.Errorf("tie order = %s, %s", got[0].Node.ID, got[1].Node.ID)
	}
}

func TestSuggest_AllCaughtUp(t *testing.T) {
	if got := Suggest(models.NewRoot(), time.Now(), 10); len(got) != 0 {
		t.Errorf("expected no suggestions, got %d", len(got))
	}
}
