package tree

import (
	"github.com/starford/visproject/internal/models"
)

// Repair normalises a freshly decoded document in place and returns the
// (possibly replaced) root together with the number of fixes applied.
//
//   - a nil root becomes the default document
//   - an empty root id becomes "root"; other empty or duplicate ids are re-issued
//   - nil children become empty
//   - done=false clears done_time
//   - review_state=true without a positive period gets period 1
//   - review_state=false drops period
func Repair(root *models.Node) (*models.Node, int) {
	if root == nil {
		return models.NewRoot(), 1
	}
	fixes := 0
	if root.ID == "" {
		root.ID = models.RootID
		fixes++
	}
	seen := make(map[string]struct{})
	Walk(root, func(n *models.Node, _ int) {
		if _, dup := seen[n.ID]; n.ID == "" || dup {
			n.ID = NewID()
			fixes++
		}
		seen[n.ID] = struct{}{}

		if n.Children == nil {
			n.Children = []*models.Node{}
		}
		kept := n.Children[:0]
		for _, ch := range n.Children {
			if ch == nil {
				fixes++
				continue
			}
			kept = append(kept, ch)
		}
		n.Children = kept

		if !n.Done && n.DoneTime != nil {
			n.DoneTime = nil
			fixes++
		}
		if n.ReviewState && (n.Period == nil || *n.Period < 1) {
			p := 1
			n.Period = &p
			fixes++
		}
		if !n.ReviewState && n.Period != nil {
			n.Period = nil
			fixes++
		}
	})
	return root, fixes
}
