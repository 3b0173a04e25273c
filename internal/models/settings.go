package models

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// View identifies which tree view a node color is resolved for.
type View string

// Tree views.
const (
	ViewProject View = "project"
	ViewReview  View = "review"
	ViewStats   View = "stats"
)

// ParseView validates a view name. Empty selects the project view.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewProject, nil
	case ViewProject, ViewReview, ViewStats:
		return v, nil
	default:
		return "", fmt.Errorf("models: unknown view %q", s)
	}
}

// Settings is the flat, user-editable settings document.
type Settings struct {
	DefaultColor               string `json:"default_color"`
	ToggleDoneColorProjectTree string `json:"toggle_done_color_project_tree"`
	StartReviewColor           string `json:"start_review_color"`
	ToggleDoneColorStat        string `json:"toggle_done_color_stat"`
	TreeXOffset                int    `json:"tree_x_offset"`
	TreeYOffset                int    `json:"tree_y_offset"`
	TimelineNumSegments        int    `json:"timeline_num_segments"`
}

// DefaultSettings returns the settings used when no document exists.
func DefaultSettings() Settings {
	return Settings{
		DefaultColor:               "#A0A0A0",
		ToggleDoneColorProjectTree: "#90EE90",
		StartReviewColor:           "#ffd54f",
		ToggleDoneColorStat:        "#90caf9",
		TreeXOffset:                300,
		TreeYOffset:                120,
		TimelineNumSegments:        9,
	}
}

// Validate validates the settings document.
func (s *Settings) Validate() error {
	color := validation.Match(hexColorRe).Error("must be a #RRGGBB color")
	return validation.ValidateStruct(s,
		validation.Field(&s.DefaultColor, validation.Required, color),
		validation.Field(&s.ToggleDoneColorProjectTree, color),
		validation.Field(&s.StartReviewColor, color),
		validation.Field(&s.ToggleDoneColorStat, color),
		validation.Field(&s.TreeXOffset, validation.Required, validation.Min(50), validation.Max(1000)),
		validation.Field(&s.TreeYOffset, validation.Required, validation.Min(50), validation.Max(1000)),
		validation.Field(&s.TimelineNumSegments, validation.Required, validation.Min(1), validation.Max(90)),
	)
}

// NodeColor resolves the display color of n for the given view. A view's
// highlight color wins over the node override, which wins over the default.
func (s Settings) NodeColor(n *Node, view View) string {
	switch view {
	case ViewProject:
		if n.Done && s.ToggleDoneColorProjectTree != "" {
			return s.ToggleDoneColorProjectTree
		}
	case ViewReview:
		if n.ReviewState && s.StartReviewColor != "" {
			return s.StartReviewColor
		}
	case ViewStats:
		if n.Done && s.ToggleDoneColorStat != "" {
			return s.ToggleDoneColorStat
		}
	}
	if n.Color != "" {
		return n.Color
	}
	return s.DefaultColor
}

// ValidColor reports whether c is a #RRGGBB color.
func ValidColor(c string) bool {
	return hexColorRe.MatchString(c)
}
