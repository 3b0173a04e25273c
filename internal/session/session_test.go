package session

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/models"
)

func at(sec int64) time.Time { return time.Unix(sec, 0) }

func TestPauseResumeScenario(t *testing.T) {
	s := New("x", models.ModeLearn)
	if err := s.Start(at(1000)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Pause(at(1100)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := s.Start(at(1150)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	ivs, err := s.End(at(1200))
	if err != nil {
		t.Fatalf("End: %v", err)
	}

	want := []Interval{{1000, 1100}, {1150, 1200}}
	if len(ivs) != len(want) {
		t.Fatalf("intervals = %v, want %v", ivs, want)
	}
	for i := range want {
		if ivs[i] != want[i] {
			t.Errorf("interval[%d] = %v, want %v", i, ivs[i], want[i])
		}
	}
	if got := Total(ivs); got != 150 {
		t.Errorf("total = %d, want 150", got)
	}
	if s.State() != Ended || s.EndedAt() != 1200 {
		t.Errorf("state=%s endedAt=%d", s.State(), s.EndedAt())
	}
}

func TestEndWhilePausedKeepsClosedIntervals(t *testing.T) {
	s := New("x", models.ModeReview)
	_ = s.Start(at(10))
	_ = s.Pause(at(40))
	ivs, err := s.End(at(100))
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(ivs) != 1 || ivs[0] != (Interval{10, 40}) {
		t.Errorf("intervals = %v", ivs)
	}
}

func TestEndFromIdleHasNoIntervals(t *testing.T) {
	s := New("x", models.ModeLearn)
	ivs, err := s.End(at(5))
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(ivs) != 0 || len(Closed(ivs)) != 0 {
		t.Errorf("intervals = %v, want none", ivs)
	}
	if s.State() != Ended {
		t.Errorf("state = %s", s.State())
	}
}

func TestIllegalTransitions(t *testing.T) {
	s := New("x", models.ModeLearn)
	if err := s.Pause(at(1)); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("pause while idle err = %v", err)
	}
	_ = s.Start(at(1))
	if err := s.Start(at(2)); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("start while running err = %v", err)
	}
	_, _ = s.End(at(3))
	if _, err := s.End(at(4)); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("end twice err = %v", err)
	}
	if err := s.Start(at(5)); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("start after end err = %v", err)
	}
}

func TestElapsed(t *testing.T) {
	s := New("x", models.ModeLearn)
	_ = s.Start(at(100))
	if got := s.Elapsed(at(130)); got != 30*time.Second {
		t.Errorf("running elapsed = %v", got)
	}
	_ = s.Pause(at(160))
	if got := s.Elapsed(at(500)); got != 60*time.Second {
		t.Errorf("paused elapsed = %v", got)
	}
	_ = s.Start(at(600))
	if got := s.Elapsed(at(610)); got != 70*time.Second {
		t.Errorf("resumed elapsed = %v", got)
	}
}

func TestClosedDropsEmptyIntervals(t *testing.T) {
	ivs := []Interval{{Start: 10, End: 10}, {Start: 20, End: 30}, {Start: 40}}
	got := Closed(ivs)
	if len(got) != 1 || got[0] != (Interval{20, 30}) {
		t.Errorf("Closed = %v", got)
	}
}
