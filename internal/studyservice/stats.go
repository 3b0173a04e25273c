package studyservice

import (
	"context"
	"fmt"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/schedule"
	"github.com/starford/visproject/internal/sse"
	"github.com/starford/visproject/internal/stats"
	"github.com/starford/visproject/internal/tree"
)

// Windows of the per-node views.
var (
	DailyWindows = []int{7, 30}
	ShareWindows = []int{1, 7, 30, 365}
)

// MonthlyWindow is the length of the monthly series.
const MonthlyWindow = 12

// AddRecord appends one record. An empty date defaults to the local day of
// the record's end.
func (s *Service) AddRecord(_ context.Context, mode models.Mode, rec models.Record) (models.Record, error) {
	if rec.Date == "" && rec.End > 0 {
		rec.Date = models.DayOf(rec.End)
	}
	id, err := s.records.Add(mode, rec)
	if err != nil {
		return models.Record{}, err
	}
	rec.ID = id
	s.notifier.Notify(sse.EventRecordAdded, map[string]any{"node_id": rec.NodeID, "mode": mode, "count": 1})
	return rec, nil
}

// NodeRecords lists the records of one node.
func (s *Service) NodeRecords(_ context.Context, mode models.Mode, nodeID string, rng models.DateRange) ([]models.Record, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("studyservice: range: %v: %w", err, apperr.ErrInvalidArgument)
	}
	return s.records.ByNode(mode, nodeID, rng)
}

// SuggestionView is one review suggestion.
type SuggestionView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Period     int     `json:"period"`
	LastReview int64   `json:"lastreview"`
}

// Suggestions is the ranked review list.
type Suggestions struct {
	Items       []SuggestionView `json:"items"`
	AllCaughtUp bool             `json:"all_caught_up"`
}

// Suggest ranks review-enrolled nodes, most overdue first.
func (s *Service) Suggest(_ context.Context, limit int) Suggestions {
	if limit <= 0 {
		limit = schedule.DefaultLimit
	}
	root, _ := s.trees.Snapshot()
	ranked := schedule.Suggest(root, s.now(), limit)
	out := Suggestions{Items: make([]SuggestionView, len(ranked)), AllCaughtUp: len(ranked) == 0}
	for i, sg := range ranked {
		out.Items[i] = SuggestionView{
			ID:         sg.Node.ID,
			Name:       sg.Node.Name,
			Score:      sg.Score,
			Period:     sg.Node.ReviewPeriod(),
			LastReview: sg.Node.LastReview,
		}
	}
	return out
}

// NodeTime returns the subtree total of one node.
func (s *Service) NodeTime(_ context.Context, id string, mode models.Mode, rng models.DateRange) (int64, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("studyservice: mode %q: %w", mode, apperr.ErrInvalidArgument)
	}
	if err := rng.Validate(); err != nil {
		return 0, fmt.Errorf("studyservice: range: %v: %w", err, apperr.ErrInvalidArgument)
	}
	root, _ := s.trees.Snapshot()
	n, err := tree.Find(root, id)
	if err != nil {
		return 0, err
	}
	return stats.TotalTime(n, mode, s.records, rng)
}

// Totals returns the subtree total of every node.
func (s *Service) Totals(_ context.Context, mode models.Mode, rng models.DateRange) (map[string]int64, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("studyservice: mode %q: %w", mode, apperr.ErrInvalidArgument)
	}
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("studyservice: range: %v: %w", err, apperr.ErrInvalidArgument)
	}
	root, _ := s.trees.Snapshot()
	return stats.SubtreeTotals(root, mode, s.records, rng)
}

// Summary returns the whole-tree learn and review totals.
func (s *Service) Summary(_ context.Context) (stats.Totals, error) {
	root, _ := s.trees.Snapshot()
	return stats.Summary(root, s.records)
}

// ModeStats are the charts of one node for one mode.
type ModeStats struct {
	Total   int64                 `json:"total"`
	Daily   map[int][]stats.Point `json:"daily"`
	Monthly []stats.Point         `json:"monthly"`
	Share   map[int][]stats.Share `json:"share"`
}

// NodeStats are the charts of one node.
type NodeStats struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Learn  ModeStats `json:"learn"`
	Review ModeStats `json:"review"`
}

// NodeStats builds the daily, monthly and child-share views of a node.
func (s *Service) NodeStats(_ context.Context, id string) (NodeStats, error) {
	root, _ := s.trees.Snapshot()
	n, err := tree.Find(root, id)
	if err != nil {
		return NodeStats{}, err
	}
	out := NodeStats{ID: n.ID, Name: n.Name}
	now := s.now()
	for _, mode := range models.Modes {
		ms := ModeStats{Daily: map[int][]stats.Point{}, Share: map[int][]stats.Share{}}
		if ms.Total, err = stats.TotalTime(n, mode, s.records, models.DateRange{}); err != nil {
			return NodeStats{}, err
		}
		for _, days := range DailyWindows {
			if ms.Daily[days], err = stats.DailySeries(n, mode, s.records, days, now); err != nil {
				return NodeStats{}, err
			}
		}
		if ms.Monthly, err = stats.MonthlySeries(n, mode, s.records, MonthlyWindow, now); err != nil {
			return NodeStats{}, err
		}
		for _, days := range ShareWindows {
			if ms.Share[days], err = stats.ChildShare(n, mode, s.records, days, now); err != nil {
				return NodeStats{}, err
			}
		}
		if mode == models.ModeLearn {
			out.Learn = ms
		} else {
			out.Review = ms
		}
	}
	return out, nil
}

// Timeline returns the recent 8-hour segments. segments <= 0 uses the
// configured count.
func (s *Service) Timeline(_ context.Context, segments int) ([]stats.Segment, error) {
	if segments <= 0 {
		segments = s.settings.Get().TimelineNumSegments
	}
	root, _ := s.trees.Snapshot()
	return stats.Timeline(root, s.records, s.now(), segments)
}
