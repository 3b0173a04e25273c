package records

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/metrics"
	"github.com/starford/visproject/internal/models"
)

func checkRecord(rec models.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("records: %v: %w", err, apperr.ErrInvalidRecord)
	}
	return nil
}

// Add appends one record and returns its row id.
func (db *DB) Add(mode models.Mode, rec models.Record) (int64, error) {
	table, err := tableFor(mode)
	if err != nil {
		return 0, err
	}
	if err := checkRecord(rec); err != nil {
		return 0, err
	}
	res, err := db.conn.Exec(
		`INSERT INTO `+table+` (node_id, date, start, "end") VALUES (?, ?, ?, ?)`,
		rec.NodeID, rec.Date, rec.Start, rec.End,
	)
	if err != nil {
		return 0, fmt.Errorf("records: insert %s: %w", mode, err)
	}
	observe(mode, rec)
	return res.LastInsertId()
}

// AddBatch appends all records in one transaction. Nothing is written when
// any record is invalid.
func (db *DB) AddBatch(mode models.Mode, recs []models.Record) error {
	table, err := tableFor(mode)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := checkRecord(rec); err != nil {
			return err
		}
	}
	if len(recs) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("records: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (node_id, date, start, "end") VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("records: prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range recs {
		if _, err := stmt.Exec(rec.NodeID, rec.Date, rec.Start, rec.End); err != nil {
			return fmt.Errorf("records: insert %s: %w", mode, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("records: commit: %w", err)
	}
	for _, rec := range recs {
		observe(mode, rec)
	}
	return nil
}

// ByNode returns the records of one node within rng, ordered by start.
func (db *DB) ByNode(mode models.Mode, nodeID string, rng models.DateRange) ([]models.Record, error) {
	table, err := tableFor(mode)
	if err != nil {
		return nil, err
	}
	where, args := rangeClause(rng)
	where = append(where, "node_id = ?")
	args = append(args, nodeID)
	return db.query(table, where, args)
}

// All returns every record of mode within rng, ordered by start.
func (db *DB) All(mode models.Mode, rng models.DateRange) ([]models.Record, error) {
	table, err := tableFor(mode)
	if err != nil {
		return nil, err
	}
	where, args := rangeClause(rng)
	return db.query(table, where, args)
}

// Count returns the number of records stored for mode.
func (db *DB) Count(mode models.Mode) (int, error) {
	table, err := tableFor(mode)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("records: count %s: %w", mode, err)
	}
	return n, nil
}

func rangeClause(rng models.DateRange) ([]string, []any) {
	var where []string
	var args []any
	if rng.From != "" {
		where = append(where, "date >= ?")
		args = append(args, rng.From)
	}
	if rng.To != "" {
		where = append(where, "date <= ?")
		args = append(args, rng.To)
	}
	return where, args
}

func (db *DB) query(table string, where []string, args []any) ([]models.Record, error) {
	q := `SELECT id, node_id, date, start, "end" FROM ` + table
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY start, id`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("records: query %s: %w", table, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	out := []models.Record{}
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.ID, &r.NodeID, &r.Date, &r.Start, &r.End); err != nil {
			return nil, fmt.Errorf("records: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func observe(mode models.Mode, rec models.Record) {
	metrics.RecordsPersisted.WithLabelValues(string(mode)).Inc()
	metrics.RecordSeconds.WithLabelValues(string(mode)).Add(float64(rec.Duration()))
}
