// Package stats aggregates recorded study time over the project tree.
//
// Every aggregate only sees records whose node is present in the tree
// passed in; records of deleted nodes stay in the store but are invisible.
package stats

import (
	"fmt"
	"time"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/tree"
)

// Source is the read side of the record store.
type Source interface {
	ByNode(mode models.Mode, nodeID string, rng models.DateRange) ([]models.Record, error)
	All(mode models.Mode, rng models.DateRange) ([]models.Record, error)
}

// TotalTime returns the summed record length of node and all its
// descendants within rng.
func TotalTime(node *models.Node, mode models.Mode, src Source, rng models.DateRange) (int64, error) {
	if node == nil {
		return 0, nil
	}
	recs, err := subtreeRecords(node, mode, src, rng)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range recs {
		total += r.Duration()
	}
	return total, nil
}

// SubtreeTotals computes TotalTime for every node of root with a single
// store read. A node's entry always equals its own time plus its
// children's entries.
func SubtreeTotals(root *models.Node, mode models.Mode, src Source, rng models.DateRange) (map[string]int64, error) {
	recs, err := src.All(mode, rng)
	if err != nil {
		return nil, fmt.Errorf("stats: totals: %w", err)
	}
	own := make(map[string]int64)
	for _, r := range recs {
		own[r.NodeID] += r.Duration()
	}

	out := make(map[string]int64)
	var rollup func(n *models.Node) int64
	rollup = func(n *models.Node) int64 {
		sum := own[n.ID]
		for _, ch := range n.Children {
			sum += rollup(ch)
		}
		out[n.ID] = sum
		return sum
	}
	if root != nil {
		rollup(root)
	}
	return out, nil
}

// Totals is the whole-tree time split by mode.
type Totals struct {
	Learn  int64 `json:"learn"`
	Review int64 `json:"review"`
}

// Summary returns the all-time learn and review totals of root.
func Summary(root *models.Node, src Source) (Totals, error) {
	var t Totals
	var err error
	if t.Learn, err = TotalTime(root, models.ModeLearn, src, models.DateRange{}); err != nil {
		return Totals{}, err
	}
	if t.Review, err = TotalTime(root, models.ModeReview, src, models.DateRange{}); err != nil {
		return Totals{}, err
	}
	return t, nil
}

// FormatSeconds renders a duration as "Xh Ym Zs".
func FormatSeconds(s int64) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%dh %dm %ds", s/3600, s%3600/60, s%60)
}

// subtreeRecords returns the records of node and its descendants.
func subtreeRecords(node *models.Node, mode models.Mode, src Source, rng models.DateRange) ([]models.Record, error) {
	if node.IsLeaf() {
		recs, err := src.ByNode(mode, node.ID, rng)
		if err != nil {
			return nil, fmt.Errorf("stats: node %s: %w", node.ID, err)
		}
		return recs, nil
	}
	all, err := src.All(mode, rng)
	if err != nil {
		return nil, fmt.Errorf("stats: node %s: %w", node.ID, err)
	}
	ids := make(map[string]struct{})
	for _, id := range tree.SubtreeIDs(node) {
		ids[id] = struct{}{}
	}
	var out []models.Record
	for _, r := range all {
		if _, ok := ids[r.NodeID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
