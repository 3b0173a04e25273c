package api

import (
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/session"
	"github.com/starford/visproject/internal/stats"
	"github.com/starford/visproject/internal/studyservice"
)

// AddNodeRequest is the request body for adding a child node.
type AddNodeRequest struct {
	Name     string `json:"name" example:"Linear algebra" validate:"required"`
	ParentID string `json:"parent_id" example:"root"`
}

// RenameRequest is the request body for renaming a node.
type RenameRequest struct {
	Name string `json:"name" example:"Calculus" validate:"required"`
}

// MoveRequest moves a node among its siblings.
type MoveRequest struct {
	Direction int `json:"direction" example:"-1" validate:"required"`
}

// MoveResponse reports whether the node moved.
type MoveResponse struct {
	Moved bool `json:"moved"`
}

// ReviewRequest enrolls a node in review.
type ReviewRequest struct {
	Period int `json:"period" example:"7" validate:"required"`
}

// ColorRequest overrides a node color.
type ColorRequest struct {
	Color string `json:"color" example:"#4F81BD" validate:"required"`
}

// ColorsResponse maps node id to its resolved display color.
type ColorsResponse struct {
	View   models.View       `json:"view"`
	Colors map[string]string `json:"colors"`
}

// SessionRequest starts or resumes a timer session.
type SessionRequest struct {
	NodeID string      `json:"node_id" validate:"required"`
	Mode   models.Mode `json:"mode" example:"learn" validate:"required"`
}

// TimerCompleteRequest persists a session timed by the client.
type TimerCompleteRequest struct {
	NodeID    string             `json:"node_id" validate:"required"`
	Mode      models.Mode        `json:"mode" example:"review" validate:"required"`
	Intervals []session.Interval `json:"intervals"`
}

// SessionResponse wraps the active session, which may be absent.
type SessionResponse struct {
	Active  bool                      `json:"active"`
	Session *studyservice.SessionView `json:"session,omitempty"`
}

// TotalsResponse maps node id to subtree seconds.
type TotalsResponse struct {
	Mode   models.Mode      `json:"mode"`
	Totals map[string]int64 `json:"totals"`
}

// SummaryResponse carries whole-tree totals with display labels.
type SummaryResponse struct {
	Learn       int64  `json:"learn"`
	Review      int64  `json:"review"`
	LearnLabel  string `json:"learn_label"`
	ReviewLabel string `json:"review_label"`
}

// TimelineResponse lists timeline segments, oldest first.
type TimelineResponse struct {
	Segments []stats.Segment `json:"segments"`
}
