package studyservice

import (
	"context"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/tree"
)

// Tree returns a laid-out copy of the project tree and its checksum.
func (s *Service) Tree(_ context.Context) (*models.Node, string) {
	root, sum := s.trees.Snapshot()
	s.layout(root)
	return root, sum
}

// Node returns a copy of one node.
func (s *Service) Node(ctx context.Context, id string) (*models.Node, error) {
	root, _ := s.Tree(ctx)
	return tree.Find(root, id)
}

// Colors resolves the display color of every node for view.
func (s *Service) Colors(_ context.Context, view models.View) map[string]string {
	root, _ := s.trees.Snapshot()
	cfg := s.settings.Get()
	out := make(map[string]string, tree.Count(root))
	tree.Walk(root, func(n *models.Node, _ int) {
		out[n.ID] = cfg.NodeColor(n, view)
	})
	return out
}

// ReplaceTree overwrites the whole document, honouring ifMatch when set.
func (s *Service) ReplaceTree(_ context.Context, doc *models.Node, ifMatch string) (*models.Node, error) {
	return s.trees.Replace(doc, ifMatch, s.layout)
}

// AddNode appends a child named name under parentID and returns it.
func (s *Service) AddNode(_ context.Context, parentID, name string) (*models.Node, error) {
	if parentID == "" {
		parentID = models.RootID
	}
	var id string
	root, err := s.mutate("add", func(r *models.Node) error {
		n, err := tree.AddChild(r, parentID, name)
		if err != nil {
			return err
		}
		id = n.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree.Find(root, id)
}

// DeleteNode removes a leaf.
func (s *Service) DeleteNode(_ context.Context, id string) error {
	_, err := s.mutate("delete", func(r *models.Node) error {
		return tree.Delete(r, id)
	})
	return err
}

// RenameNode changes a node's name.
func (s *Service) RenameNode(_ context.Context, id, name string) (*models.Node, error) {
	return s.mutateNode("rename", id, func(r *models.Node) error {
		return tree.Rename(r, id, name)
	})
}

// MoveNode swaps a node with its left (-1) or right (+1) sibling. moved is
// false when the node already sits at that edge.
func (s *Service) MoveNode(_ context.Context, id string, direction int) (moved bool, err error) {
	_, err = s.mutate("move", func(r *models.Node) error {
		moved, err = tree.Move(r, id, direction)
		return err
	})
	return moved, err
}

// ToggleDone flips a node's done flag.
func (s *Service) ToggleDone(_ context.Context, id string) (*models.Node, error) {
	return s.mutateNode("toggle_done", id, func(r *models.Node) error {
		_, err := tree.ToggleDone(r, id, s.now())
		return err
	})
}

// SetReview enrolls a node in review with the given period in days.
func (s *Service) SetReview(_ context.Context, id string, period int) (*models.Node, error) {
	return s.mutateNode("set_review", id, func(r *models.Node) error {
		return tree.SetReview(r, id, period)
	})
}

// UnsetReview removes a node from review.
func (s *Service) UnsetReview(_ context.Context, id string) (*models.Node, error) {
	return s.mutateNode("unset_review", id, func(r *models.Node) error {
		return tree.UnsetReview(r, id)
	})
}

// SetColor overrides a node's display color.
func (s *Service) SetColor(_ context.Context, id, color string) (*models.Node, error) {
	return s.mutateNode("set_color", id, func(r *models.Node) error {
		return tree.SetColor(r, id, color)
	})
}

// ClearColor resets a node to the default color.
func (s *Service) ClearColor(_ context.Context, id string) (*models.Node, error) {
	return s.mutateNode("clear_color", id, func(r *models.Node) error {
		return tree.ClearColor(r, id)
	})
}

func (s *Service) mutateNode(op, id string, fn func(*models.Node) error) (*models.Node, error) {
	root, err := s.mutate(op, fn)
	if err != nil {
		return nil, err
	}
	return tree.Find(root, id)
}

// mutate applies fn and lays the tree out before it is saved, so the
// persisted positions always match the current settings.
func (s *Service) mutate(op string, fn func(*models.Node) error) (*models.Node, error) {
	return s.trees.Mutate(op, func(r *models.Node) error {
		if err := fn(r); err != nil {
			return err
		}
		s.layout(r)
		return nil
	})
}

func (s *Service) layout(root *models.Node) {
	cfg := s.settings.Get()
	tree.Layout(root, float64(cfg.TreeXOffset), float64(cfg.TreeYOffset))
}
