package stats

import (
	"time"

	"github.com/starford/visproject/internal/models"
)

// MonthLayout labels monthly buckets.
const MonthLayout = "2006-01"

// Point is one labelled bucket of a time series.
type Point struct {
	Label   string `json:"label"`
	Seconds int64  `json:"seconds"`
}

// DailySeries returns the subtree time of node for each of the last days
// days ending on now's calendar day, oldest first. Days without records are
// zero.
func DailySeries(node *models.Node, mode models.Mode, src Source, days int, now time.Time) ([]Point, error) {
	if days < 1 {
		days = 1
	}
	day := today(now)
	rng := models.LastDays(day, days)
	recs, err := subtreeRecords(node, mode, src, rng)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int64)
	for _, r := range recs {
		byDay[r.Date] += r.Duration()
	}

	out := make([]Point, days)
	for i := range out {
		label := day.AddDate(0, 0, i-(days-1)).Format(models.DateLayout)
		out[i] = Point{Label: label, Seconds: byDay[label]}
	}
	return out, nil
}

// MonthlySeries returns the subtree time of node for each of the last
// months calendar months ending with now's month, oldest first.
func MonthlySeries(node *models.Node, mode models.Mode, src Source, months int, now time.Time) ([]Point, error) {
	if months < 1 {
		months = 1
	}
	y, m, _ := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	rng := models.DateRange{From: first.Format(models.DateLayout), To: today(now).Format(models.DateLayout)}
	recs, err := subtreeRecords(node, mode, src, rng)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]int64)
	for _, r := range recs {
		if len(r.Date) >= len(MonthLayout) {
			byMonth[r.Date[:len(MonthLayout)]] += r.Duration()
		}
	}

	out := make([]Point, months)
	for i := range out {
		label := first.AddDate(0, i, 0).Format(MonthLayout)
		out[i] = Point{Label: label, Seconds: byMonth[label]}
	}
	return out, nil
}

// Share is one direct child's portion of a window.
type Share struct {
	NodeID   string  `json:"node_id"`
	Name     string  `json:"name"`
	Seconds  int64   `json:"seconds"`
	Fraction float64 `json:"fraction"`
}

// ChildShare splits the last windowDays days of node's direct children by
// subtree time. Children with no time are omitted; fractions sum to 1 when
// any child has time.
func ChildShare(node *models.Node, mode models.Mode, src Source, windowDays int, now time.Time) ([]Share, error) {
	if node == nil || len(node.Children) == 0 {
		return []Share{}, nil
	}
	totals, err := SubtreeTotals(node, mode, src, models.LastDays(today(now), windowDays))
	if err != nil {
		return nil, err
	}
	out := []Share{}
	var sum int64
	for _, ch := range node.Children {
		if s := totals[ch.ID]; s > 0 {
			out = append(out, Share{NodeID: ch.ID, Name: ch.Name, Seconds: s})
			sum += s
		}
	}
	for i := range out {
		out[i].Fraction = float64(out[i].Seconds) / float64(sum)
	}
	return out, nil
}
