package tree

import (
	"time"

	"github.com/starford/visproject/internal/metrics"
	"github.com/starford/visproject/internal/models"
)

// Layout assigns a position to every node of the tree rooted at root.
//
// Leaves are numbered 0, 1, 2, ... in pre-order and placed at
// index*xSpacing. An internal node sits at the arithmetic mean of its direct
// children's x, regardless of how wide their subtrees are. y is
// depth*ySpacing with the root at depth 0.
//
// Wide, unbalanced subtrees may overlap visually; that is accepted.
func Layout(root *models.Node, xSpacing, ySpacing float64) {
	if root == nil {
		return
	}
	start := time.Now()
	defer func() {
		metrics.LayoutDuration.Observe(time.Since(start).Seconds())
	}()

	leaf := 0
	var place func(n *models.Node, depth int) float64
	place = func(n *models.Node, depth int) float64 {
		y := float64(depth) * ySpacing
		if n.IsLeaf() {
			x := float64(leaf) * xSpacing
			leaf++
			n.Pos = models.Position{x, y}
			return x
		}
		var sum float64
		for _, ch := range n.Children {
			sum += place(ch, depth+1)
		}
		x := sum / float64(len(n.Children))
		n.Pos = models.Position{x, y}
		return x
	}
	place(root, 0)
}
