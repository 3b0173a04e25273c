package studyservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/metrics"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/session"
	"github.com/starford/visproject/internal/sse"
	"github.com/starford/visproject/internal/tree"
)

// SessionView is a snapshot of the active timer session.
type SessionView struct {
	NodeID    string             `json:"node_id"`
	NodeName  string             `json:"node_name"`
	Mode      models.Mode        `json:"mode"`
	State     session.State      `json:"state"`
	Intervals []session.Interval `json:"intervals"`
	Elapsed   int64              `json:"elapsed"`
}

// Completion reports what an ended session persisted.
type Completion struct {
	NodeID  string      `json:"node_id"`
	Mode    models.Mode `json:"mode"`
	Records int         `json:"records"`
	Seconds int64       `json:"seconds"`
	EndedAt int64       `json:"ended_at"`
}

// Session returns the active session, if any.
func (s *Service) Session(_ context.Context) (SessionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return SessionView{}, false
	}
	return s.viewLocked(), true
}

// StartSession starts or resumes the timer for (nodeID, mode). Only one
// session exists at a time; a different pair is rejected with
// apperr.ErrSessionActive until the current one ends.
func (s *Service) StartSession(ctx context.Context, nodeID string, mode models.Mode) (SessionView, error) {
	if !mode.Valid() {
		return SessionView{}, fmt.Errorf("studyservice: mode %q: %w", mode, apperr.ErrInvalidArgument)
	}
	if _, err := s.Node(ctx, nodeID); err != nil {
		return SessionView{}, err
	}

	s.mu.Lock()
	if s.active != nil && (s.active.NodeID != nodeID || s.active.Mode != mode) {
		cur := s.active
		s.mu.Unlock()
		return SessionView{}, fmt.Errorf("studyservice: %s session on %s is %s: %w",
			cur.Mode, cur.NodeID, cur.State(), apperr.ErrSessionActive)
	}
	if s.active == nil {
		s.active = session.New(nodeID, mode)
	}
	if err := s.active.Start(s.now()); err != nil {
		s.mu.Unlock()
		return SessionView{}, err
	}
	view := s.viewLocked()
	s.mu.Unlock()

	metrics.SessionActive.Set(1)
	s.notifier.Notify(sse.EventSessionState, view)
	return view, nil
}

// PauseSession pauses the running session.
func (s *Service) PauseSession(_ context.Context) (SessionView, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return SessionView{}, fmt.Errorf("studyservice: pause: %w", apperr.ErrNoSession)
	}
	if err := s.active.Pause(s.now()); err != nil {
		s.mu.Unlock()
		return SessionView{}, err
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.notifier.Notify(sse.EventSessionState, view)
	return view, nil
}

// EndSession ends the active session and persists its closed intervals.
// The session stays held in the ended state until its records are stored,
// so a failed write can be retried by calling EndSession again.
func (s *Service) EndSession(ctx context.Context) (Completion, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return Completion{}, fmt.Errorf("studyservice: end: %w", apperr.ErrNoSession)
	}
	sess := s.active
	if sess.State() != session.Ended {
		if _, err := sess.End(s.now()); err != nil {
			s.mu.Unlock()
			return Completion{}, err
		}
	}
	intervals := sess.Intervals()
	done, err := s.storeRecords(sess.NodeID, sess.Mode, intervals, sess.EndedAt())
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("studyservice: session records not stored, session kept",
			slog.String("node_id", sess.NodeID), slog.String("error", err.Error()))
		return Completion{}, fmt.Errorf("studyservice: end: %w", err)
	}
	s.active = nil
	s.mu.Unlock()

	metrics.SessionActive.Set(0)
	metrics.SessionsEnded.WithLabelValues(string(sess.Mode)).Inc()
	s.notifier.Notify(sse.EventSessionState, SessionView{
		NodeID: sess.NodeID, Mode: sess.Mode, State: session.Ended, Intervals: intervals,
		Elapsed: session.Total(intervals),
	})
	return done, s.markReviewed(ctx, done)
}

// CompleteSession persists a session timed elsewhere. Open intervals are
// skipped; the record date and review timestamp are taken from now.
func (s *Service) CompleteSession(ctx context.Context, nodeID string, mode models.Mode, intervals []session.Interval) (Completion, error) {
	if !mode.Valid() {
		return Completion{}, fmt.Errorf("studyservice: mode %q: %w", mode, apperr.ErrInvalidArgument)
	}
	if nodeID == "" {
		return Completion{}, fmt.Errorf("studyservice: node id required: %w", apperr.ErrInvalidArgument)
	}
	return s.persist(ctx, nodeID, mode, intervals, s.now().Unix())
}

// Tick publishes the running session's elapsed time.
func (s *Service) Tick(_ context.Context) {
	s.mu.Lock()
	if s.active == nil || s.active.State() != session.Running {
		s.mu.Unlock()
		return
	}
	view := s.viewLocked()
	s.mu.Unlock()
	s.notifier.Notify(sse.EventSessionTick, map[string]any{
		"node_id": view.NodeID,
		"mode":    view.Mode,
		"elapsed": view.Elapsed,
	})
}

// CanShutdown reports whether no timer is running, paused or waiting for
// its records to be stored.
func (s *Service) CanShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == nil || s.active.State() == session.Idle
}

// persist writes the closed intervals as records dated by the local day of
// end, then marks review nodes as reviewed at end.
func (s *Service) persist(ctx context.Context, nodeID string, mode models.Mode, intervals []session.Interval, end int64) (Completion, error) {
	done, err := s.storeRecords(nodeID, mode, intervals, end)
	if err != nil {
		return Completion{}, err
	}
	return done, s.markReviewed(ctx, done)
}

func (s *Service) storeRecords(nodeID string, mode models.Mode, intervals []session.Interval, end int64) (Completion, error) {
	closed := session.Closed(intervals)
	done := Completion{NodeID: nodeID, Mode: mode, EndedAt: end}
	if len(closed) == 0 {
		return done, nil
	}

	date := models.DayOf(end)
	recs := make([]models.Record, len(closed))
	for i, iv := range closed {
		recs[i] = models.Record{NodeID: nodeID, Date: date, Start: iv.Start, End: iv.End}
	}
	if err := s.records.AddBatch(mode, recs); err != nil {
		return Completion{}, err
	}
	done.Records = len(recs)
	done.Seconds = session.Total(closed)
	s.notifier.Notify(sse.EventRecordAdded, map[string]any{
		"node_id": nodeID, "mode": mode, "count": done.Records,
	})
	s.logger.Info("studyservice: session persisted",
		slog.String("node_id", nodeID), slog.String("mode", string(mode)),
		slog.Int("records", done.Records), slog.Int64("seconds", done.Seconds))
	return done, nil
}

// markReviewed stamps the review time on the node of a stored review
// session. A node deleted meanwhile is skipped.
func (s *Service) markReviewed(_ context.Context, done Completion) error {
	if done.Mode != models.ModeReview || done.Records == 0 {
		return nil
	}
	_, err := s.mutate("mark_reviewed", func(r *models.Node) error {
		return tree.MarkReviewed(r, done.NodeID, done.EndedAt)
	})
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("studyservice: reviewed node no longer exists", slog.String("node_id", done.NodeID))
		return nil
	}
	return err
}

func (s *Service) viewLocked() SessionView {
	v := SessionView{
		NodeID:    s.active.NodeID,
		Mode:      s.active.Mode,
		State:     s.active.State(),
		Intervals: s.active.Intervals(),
		Elapsed:   int64(s.active.Elapsed(s.now()).Seconds()),
	}
	root, _ := s.trees.Snapshot()
	if n, err := tree.Find(root, v.NodeID); err == nil {
		v.NodeName = n.Name
	}
	return v
}
