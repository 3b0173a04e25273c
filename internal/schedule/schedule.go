// Package schedule ranks review-enrolled nodes by how overdue they are.
package schedule

import (
	"sort"
	"time"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/tree"
)

const secondsPerDay = 86400

// DefaultLimit is the number of suggestions hosts show by default.
const DefaultLimit = 10

// Suggestion is one ranked review candidate.
type Suggestion struct {
	Node  *models.Node
	Score float64
}

// DueScore returns (now - lastreview) / (period * 1 day). A node never
// reviewed has lastreview 0, so its score grows with now itself; scores are
// only meaningful relative to each other. ok is false for nodes that are not
// enrolled in review.
func DueScore(n *models.Node, now time.Time) (score float64, ok bool) {
	if n == nil || !n.ReviewState {
		return 0, false
	}
	elapsed := float64(now.Unix() - n.LastReview)
	return elapsed / float64(n.ReviewPeriod()*secondsPerDay), true
}

// Suggest returns up to topN enrolled nodes, most overdue first. Ties keep
// pre-order traversal order. topN <= 0 returns every enrolled node. An empty
// result means everything is caught up.
func Suggest(root *models.Node, now time.Time, topN int) []Suggestion {
	var out []Suggestion
	tree.Walk(root, func(n *models.Node, _ int) {
		if score, ok := DueScore(n, now); ok {
			out = append(out, Suggestion{Node: n, Score: score})
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
