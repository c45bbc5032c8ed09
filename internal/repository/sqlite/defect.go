package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
)

const defectColumns = `id, title, description, object_id, status_id, priority_id, assignee_id, reporter_id, due_date, created, updated, completed`

func (r *SQLiteRepo) CreateDefect(ctx context.Context, d *models.Defect) (int64, error) {
	if d == nil {
		return 0, fmt.Errorf("defect is nil")
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO defects (title, description, object_id, status_id, priority_id, assignee_id, reporter_id, due_date, created, updated, completed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Title, d.Description, d.ObjectID, d.StatusID, d.PriorityID, d.AssigneeID, d.ReporterID, d.DueDate, ts, ts, d.Completed)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetDefectByID(ctx context.Context, id int64) (*models.Defect, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+defectColumns+` FROM defects WHERE id = ?`, id)
	d, err := scanDefect(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return d, nil
}

func (r *SQLiteRepo) UpdateDefect(ctx context.Context, d *models.Defect) error {
	if d == nil {
		return fmt.Errorf("defect is nil")
	}

	_, err := r.q.ExecContext(ctx, `UPDATE defects SET title = ?, description = ?, object_id = ?, status_id = ?, priority_id = ?, assignee_id = ?, due_date = ?, updated = ?, completed = ? WHERE id = ?`,
		d.Title, d.Description, d.ObjectID, d.StatusID, d.PriorityID, d.AssigneeID, d.DueDate, now(), d.Completed, d.ID)
	return err
}

func (r *SQLiteRepo) DeleteDefect(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM defects WHERE id = ?`, id)
	return err
}

// filterClause renders the optional defect filters as a WHERE clause.
func filterClause(f repository.DefectFilter) (string, []any) {
	var conds []string
	var args []any
	if f.ObjectID != nil {
		conds = append(conds, "object_id = ?")
		args = append(args, *f.ObjectID)
	}
	if f.AssigneeID != nil {
		conds = append(conds, "assignee_id = ?")
		args = append(args, *f.AssigneeID)
	}
	if f.StatusID != nil {
		conds = append(conds, "status_id = ?")
		args = append(args, *f.StatusID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SQLiteRepo) ListDefects(ctx context.Context, f repository.DefectFilter) ([]models.Defect, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	where, args := filterClause(f)
	args = append(args, limit, offset)
	rows, err := r.q.QueryContext(ctx, `SELECT `+defectColumns+` FROM defects`+where+` ORDER BY id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDefects(rows)
}

func (r *SQLiteRepo) CountDefects(ctx context.Context, f repository.DefectFilter) (int64, error) {
	where, args := filterClause(f)
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM defects`+where, args...)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) ListDefectsByObject(ctx context.Context, objectID int64) ([]models.Defect, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+defectColumns+` FROM defects WHERE object_id = ? ORDER BY id`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDefects(rows)
}

func (r *SQLiteRepo) ListDefectsByAssignee(ctx context.Context, userID int64) ([]models.Defect, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+defectColumns+` FROM defects WHERE assignee_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDefects(rows)
}

func scanDefect(scan func(dest ...any) error) (*models.Defect, error) {
	var d models.Defect
	var assignee, completed sql.NullInt64
	var due sql.NullString
	if err := scan(&d.ID, &d.Title, &d.Description, &d.ObjectID, &d.StatusID, &d.PriorityID, &assignee, &d.ReporterID, &due, &d.Created, &d.Updated, &completed); err != nil {
		return nil, err
	}
	if assignee.Valid {
		d.AssigneeID = &assignee.Int64
	}
	if due.Valid {
		d.DueDate = &due.String
	}
	if completed.Valid {
		d.Completed = &completed.Int64
	}
	return &d, nil
}

func scanDefects(rows *sql.Rows) ([]models.Defect, error) {
	var out []models.Defect
	for rows.Next() {
		d, err := scanDefect(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}

	return out, rows.Err()
}
