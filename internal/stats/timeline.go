package stats

import (
	"sort"
	"time"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/tree"
)

// SegmentHours is the width of one timeline segment.
const SegmentHours = 8

// Entry is one interval placed on the timeline.
type Entry struct {
	NodeID string      `json:"node_id"`
	Name   string      `json:"name"`
	Mode   models.Mode `json:"mode"`
	Start  int64       `json:"start"`
	End    int64       `json:"end"`
}

// Segment is an 8-hour window and the intervals that started inside it.
type Segment struct {
	Start   int64   `json:"start"`
	End     int64   `json:"end"`
	Entries []Entry `json:"entries"`
}

// Timeline returns segments consecutive 8-hour windows aligned to
// 00:00, 08:00 and 16:00 local time, oldest first, the last one containing
// now. Intervals of the root node are left out.
func Timeline(root *models.Node, src Source, now time.Time, segments int) ([]Segment, error) {
	if segments < 1 {
		segments = 1
	}
	// Boundaries are built from wall-clock hours so they stay on 00/08/16
	// when a window spans a DST change.
	y, m, d := now.Date()
	loc := now.Location()
	h0 := now.Hour() / SegmentHours * SegmentHours
	boundary := func(back int) time.Time {
		return time.Date(y, m, d, h0-back*SegmentHours, 0, 0, 0, loc)
	}
	first := boundary(segments - 1)

	out := make([]Segment, segments)
	for i := range out {
		out[i] = Segment{
			Start:   boundary(segments - 1 - i).Unix(),
			End:     boundary(segments - 2 - i).Unix(),
			Entries: []Entry{},
		}
	}

	names := make(map[string]string)
	tree.Walk(root, func(n *models.Node, _ int) { names[n.ID] = n.Name })
	if root != nil {
		delete(names, root.ID)
	}

	// Records are dated by the day their session ended, so widen the read by
	// a day to catch intervals that started before midnight.
	rng := models.DateRange{
		From: first.AddDate(0, 0, -1).Format(models.DateLayout),
		To:   boundary(-1).AddDate(0, 0, 1).Format(models.DateLayout),
	}
	for _, mode := range models.Modes {
		recs, err := src.All(mode, rng)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			name, ok := names[r.NodeID]
			if !ok {
				continue
			}
			for i := range out {
				if r.Start >= out[i].Start && r.Start < out[i].End {
					out[i].Entries = append(out[i].Entries, Entry{
						NodeID: r.NodeID, Name: name, Mode: mode, Start: r.Start, End: r.End,
					})
					break
				}
			}
		}
	}
	for i := range out {
		sort.SliceStable(out[i].Entries, func(a, b int) bool {
			return out[i].Entries[a].Start < out[i].Entries[b].Start
		})
	}
	return out, nil
}
