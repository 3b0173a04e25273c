package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the calendar-day format used by interval records.
const DateLayout = "2006-01-02"

// Mode selects one of the two record tables.
type Mode string

// Record modes.
const (
	ModeLearn  Mode = "learn"
	ModeReview Mode = "review"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeLearn, ModeReview}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLearn || m == ModeReview
}

// ParseMode converts s to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// Record is one persisted timed session segment.
type Record struct {
	ID     int64  `json:"id"`
	NodeID string `json:"node_id"`
	Date   string `json:"date"`
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
}

// Duration returns the record length in seconds.
func (r Record) Duration() int64 {
	return r.End - r.Start
}

// Validate checks the record invariants: a node reference, a calendar day
// and end strictly after start.
func (r Record) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NodeID, validation.Required),
		validation.Field(&r.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&r.Start, validation.Min(int64(0))),
		validation.Field(&r.End, validation.By(func(any) error {
			if r.End <= r.Start {
				return fmt.Errorf("must be after start")
			}
			return nil
		})),
	)
}

// DayOf formats the local calendar day of a unix timestamp.
func DayOf(ts int64) string {
	return time.Unix(ts, 0).Format(DateLayout)
}

// DateRange is an inclusive calendar-day window. Empty bounds are open.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Contains reports whether date falls within the range. Dates compare
// lexically because of the fixed-width layout.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// Validate checks that bounds are well-formed and ordered.
func (r DateRange) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Date(DateLayout)),
		validation.Field(&r.To, validation.Date(DateLayout)),
	); err != nil {
		return err
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return fmt.Errorf("from %s is after to %s", r.From, r.To)
	}
	return nil
}

// LastDays returns the range covering the n days ending on today.
func LastDays(today time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	return DateRange{
		From: today.AddDate(0, 0, -(n - 1)).Format(DateLayout),
		To:   today.Format(DateLayout),
	}
}
