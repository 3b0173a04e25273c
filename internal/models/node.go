// Package models defines the domain types for VisProject.
package models

// Well-known identity of the tree root.
const (
	RootID   = "root"
	RootName = "Root"
)

// Position is a derived (x, y) layout coordinate. It is persisted only as a
// cache and always recomputed before use.
type Position [2]float64

// X returns the horizontal coordinate.
func (p Position) X() float64 { return p[0] }

// Y returns the vertical coordinate.
func (p Position) Y() float64 { return p[1] }

// Node is one learnable/reviewable topic in the project tree.
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Done        bool     `json:"done"`
	DoneTime    *int64   `json:"done_time,omitempty"`
	LastReview  int64    `json:"lastreview"`
	ReviewState bool     `json:"review_state"`
	Period      *int     `json:"period,omitempty"`
	Color       string   `json:"color,omitempty"`
	Pos         Position `json:"pos"`
	Children    []*Node  `json:"children"`
}

// NewRoot returns the default single-node document.
func NewRoot() *Node {
	return &Node{
		ID:       RootID,
		Name:     RootName,
		Children: []*Node{},
	}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// ReviewPeriod returns the review period in days, defaulting to 1.
func (n *Node) ReviewPeriod() int {
	if n.Period == nil || *n.Period <= 0 {
		return 1
	}
	return *n.Period
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.DoneTime != nil {
		v := *n.DoneTime
		c.DoneTime = &v
	}
	if n.Period != nil {
		v := *n.Period
		c.Period = &v
	}
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = ch.Clone()
	}
	return &c
}
