// Package session implements the timed learn/review session state machine.
//
// A Session is bound to one (node, mode) pair and moves
// Idle → Running ⇄ Paused → Ended. It is not safe for concurrent use; the
// owner serializes calls.
package session

import (
	"fmt"
	"time"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/models"
)

// State is the lifecycle position of a session.
type State int

// Session states.
const (
	Idle State = iota
	Running
	Paused
	Ended
)

var stateNames = [...]string{"idle", "running", "paused", "ended"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Interval is one timed segment in unix seconds. End is 0 while open.
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end,omitempty"`
}

// Open reports whether the interval has not been closed yet.
func (iv Interval) Open() bool { return iv.End == 0 }

// Persistable reports whether the interval is closed and has positive length.
func (iv Interval) Persistable() bool { return iv.End > iv.Start }

// Session is one timer run.
type Session struct {
	NodeID    string
	Mode      models.Mode
	state     State
	intervals []Interval
	endedAt   int64
}

// New returns an idle session bound to nodeID and mode.
func New(nodeID string, mode models.Mode) *Session {
	return &Session{NodeID: nodeID, Mode: mode}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Intervals returns a copy of the interval list.
func (s *Session) Intervals() []Interval {
	out := make([]Interval, len(s.intervals))
	copy(out, s.intervals)
	return out
}

// EndedAt returns the end timestamp, or 0 if the session has not ended.
func (s *Session) EndedAt() int64 { return s.endedAt }

// Start opens a new interval. Legal from Idle and Paused.
func (s *Session) Start(now time.Time) error {
	switch s.state {
	case Idle, Paused:
		s.intervals = append(s.intervals, Interval{Start: now.Unix()})
		s.state = Running
		return nil
	default:
		return fmt.Errorf("session: start while %s: %w", s.state, apperr.ErrInvalidTransition)
	}
}

// Pause closes the open interval. Legal only while Running.
func (s *Session) Pause(now time.Time) error {
	if s.state != Running {
		return fmt.Errorf("session: pause while %s: %w", s.state, apperr.ErrInvalidTransition)
	}
	s.closeOpen(now)
	s.state = Paused
	return nil
}

// End closes any open interval, moves to Ended and returns every interval.
// Ending an idle session yields no intervals.
func (s *Session) End(now time.Time) ([]Interval, error) {
	if s.state == Ended {
		return nil, fmt.Errorf("session: already ended: %w", apperr.ErrInvalidTransition)
	}
	if s.state == Running {
		s.closeOpen(now)
	}
	s.state = Ended
	s.endedAt = now.Unix()
	return s.Intervals(), nil
}

// Elapsed returns the total timed length including the open interval.
func (s *Session) Elapsed(now time.Time) time.Duration {
	var total int64
	for _, iv := range s.intervals {
		switch {
		case !iv.Open():
			total += iv.End - iv.Start
		case s.state == Running:
			total += now.Unix() - iv.Start
		}
	}
	if total < 0 {
		total = 0
	}
	return time.Duration(total) * time.Second
}

func (s *Session) closeOpen(now time.Time) {
	last := len(s.intervals) - 1
	if last >= 0 && s.intervals[last].Open() {
		s.intervals[last].End = now.Unix()
	}
}

// Closed filters intervals down to those that may be persisted.
func Closed(intervals []Interval) []Interval {
	var out []Interval
	for _, iv := range intervals {
		if iv.Persistable() {
			out = append(out, iv)
		}
	}
	return out
}

// Total sums the lengths of persistable intervals in seconds.
func Total(intervals []Interval) int64 {
	var total int64
	for _, iv := range Closed(intervals) {
		total += iv.End - iv.Start
	}
	return total
}
