// Package tree implements mutations, traversal and layout over the project tree.
//
// All mutating functions either apply completely or leave the tree unchanged.
package tree

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/models"
)

// NewID returns a fresh node identity.
func NewID() string {
	return uuid.NewString()
}

// Walk visits every node in pre-order, respecting child order.
func Walk(root *models.Node, fn func(n *models.Node, depth int)) {
	var visit func(n *models.Node, depth int)
	visit = func(n *models.Node, depth int) {
		fn(n, depth)
		for _, ch := range n.Children {
			visit(ch, depth+1)
		}
	}
	if root != nil {
		visit(root, 0)
	}
}

// Count returns the number of nodes in the tree.
func Count(root *models.Node) int {
	n := 0
	Walk(root, func(*models.Node, int) { n++ })
	return n
}

// SubtreeIDs returns the ids of n and all its descendants.
func SubtreeIDs(n *models.Node) []string {
	var ids []string
	Walk(n, func(x *models.Node, _ int) { ids = append(ids, x.ID) })
	return ids
}

// Find returns the node with the given id.
func Find(root *models.Node, id string) (*models.Node, error) {
	n, _, _, err := FindWithParent(root, id)
	return n, err
}

// FindWithParent returns the node with the given id, its parent (nil for the
// root) and its index among the parent's children.
func FindWithParent(root *models.Node, id string) (*models.Node, *models.Node, int, error) {
	if root == nil {
		return nil, nil, -1, fmt.Errorf("tree: node %s: %w", id, apperr.ErrNotFound)
	}
	if root.ID == id {
		return root, nil, -1, nil
	}
	var (
		found  *models.Node
		parent *models.Node
		index  = -1
	)
	var search func(n *models.Node) bool
	search = func(n *models.Node) bool {
		for i, ch := range n.Children {
			if ch.ID == id {
				found, parent, index = ch, n, i
				return true
			}
			if search(ch) {
				return true
			}
		}
		return false
	}
	if !search(root) {
		return nil, nil, -1, fmt.Errorf("tree: node %s: %w", id, apperr.ErrNotFound)
	}
	return found, parent, index, nil
}

// AddChild appends a new child named name under parentID and returns it.
func AddChild(root *models.Node, parentID, name string) (*models.Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tree: name is required: %w", apperr.ErrInvalidArgument)
	}
	parent, err := Find(root, parentID)
	if err != nil {
		return nil, err
	}
	child := &models.Node{
		ID:       NewID(),
		Name:     name,
		Children: []*models.Node{},
	}
	parent.Children = append(parent.Children, child)
	return child, nil
}

// Delete removes the leaf node id. The root and non-leaf nodes cannot be
// deleted. Records of the node stay in the record store.
func Delete(root *models.Node, id string) error {
	n, parent, idx, err := FindWithParent(root, id)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("tree: cannot delete root: %w", apperr.ErrInvalidDeletion)
	}
	if !n.IsLeaf() {
		return fmt.Errorf("tree: node %s has children: %w", id, apperr.ErrInvalidDeletion)
	}
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	return nil
}

// Rename changes the display label of id.
func Rename(root *models.Node, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tree: name is required: %w", apperr.ErrInvalidArgument)
	}
	n, err := Find(root, id)
	if err != nil {
		return err
	}
	n.Name = name
	return nil
}

// Move swaps id with its left (direction < 0) or right (direction > 0)
// sibling. It reports false when the node is already at that edge.
func Move(root *models.Node, id string, direction int) (bool, error) {
	if direction != -1 && direction != 1 {
		return false, fmt.Errorf("tree: direction must be -1 or 1: %w", apperr.ErrInvalidArgument)
	}
	_, parent, idx, err := FindWithParent(root, id)
	if err != nil {
		return false, err
	}
	if parent == nil {
		return false, fmt.Errorf("tree: cannot move root: %w", apperr.ErrInvalidArgument)
	}
	next := idx + direction
	if next < 0 || next >= len(parent.Children) {
		return false, nil
	}
	parent.Children[idx], parent.Children[next] = parent.Children[next], parent.Children[idx]
	return true, nil
}

// ToggleDone flips the completion flag. done_time is set on false→true and
// cleared on true→false.
func ToggleDone(root *models.Node, id string, now time.Time) (*models.Node, error) {
	n, err := Find(root, id)
	if err != nil {
		return nil, err
	}
	if n.Done {
		n.Done = false
		n.DoneTime = nil
	} else {
		ts := now.Unix()
		n.Done = true
		n.DoneTime = &ts
	}
	return n, nil
}

// SetReview enrolls id in spaced review with the given period in days.
func SetReview(root *models.Node, id string, period int) error {
	if period < 1 {
		return fmt.Errorf("tree: period must be positive: %w", apperr.ErrInvalidArgument)
	}
	n, err := Find(root, id)
	if err != nil {
		return err
	}
	n.ReviewState = true
	n.Period = &period
	return nil
}

// UnsetReview removes id from spaced review. lastreview is kept.
func UnsetReview(root *models.Node, id string) error {
	n, err := Find(root, id)
	if err != nil {
		return err
	}
	n.ReviewState = false
	n.Period = nil
	return nil
}

// MarkReviewed records ts as the last review time of id.
func MarkReviewed(root *models.Node, id string, ts int64) error {
	n, err := Find(root, id)
	if err != nil {
		return err
	}
	n.LastReview = ts
	return nil
}

// SetColor overrides the display color of id.
func SetColor(root *models.Node, id, color string) error {
	if !models.ValidColor(color) {
		return fmt.Errorf("tree: color %q: %w", color, apperr.ErrInvalidArgument)
	}
	n, err := Find(root, id)
	if err != nil {
		return err
	}
	n.Color = color
	return nil
}

// ClearColor drops the color override of id.
func ClearColor(root *models.Node, id string) error {
	n, err := Find(root, id)
	if err != nil {
		return err
	}
	n.Color = ""
	return nil
}
