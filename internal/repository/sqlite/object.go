package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/snaglist/pkg/models"
)

func (r *SQLiteRepo) CreateObject(ctx context.Context, o *models.Object) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("object is nil")
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO objects (name, description, address, start_date, end_date, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.Name, o.Description, o.Address, o.StartDate, o.EndDate, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetObjectByID(ctx context.Context, id int64) (*models.Object, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, name, description, address, start_date, end_date, created, updated FROM objects WHERE id = ?`, id)
	var o models.Object
	var start, end sql.NullString
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Address, &start, &end, &o.Created, &o.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if start.Valid {
		o.StartDate = &start.String
	}
	if end.Valid {
		o.EndDate = &end.String
	}

	return &o, nil
}

func (r *SQLiteRepo) UpdateObject(ctx context.Context, o *models.Object) error {
	if o == nil {
		return fmt.Errorf("object is nil")
	}

	_, err := r.q.ExecContext(ctx, `UPDATE objects SET name = ?, description = ?, address = ?, start_date = ?, end_date = ?, updated = ? WHERE id = ?`,
		o.Name, o.Description, o.Address, o.StartDate, o.EndDate, now(), o.ID)
	return err
}

func (r *SQLiteRepo) DeleteObject(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListObjects(ctx context.Context, limit, offset int) ([]models.Object, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.QueryContext(ctx, `SELECT id, name, description, address, start_date, end_date, created, updated FROM objects ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObjects(rows)
}

func (r *SQLiteRepo) CountObjects(ctx context.Context) (int64, error) {
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) ListObjectsForAssignee(ctx context.Context, userID int64, limit, offset int) ([]models.Object, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.QueryContext(ctx, `SELECT DISTINCT o.id, o.name, o.description, o.address, o.start_date, o.end_date, o.created, o.updated
		FROM objects o JOIN defects d ON d.object_id = o.id
		WHERE d.assignee_id = ? ORDER BY o.id LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObjects(rows)
}

func (r *SQLiteRepo) CountObjectsForAssignee(ctx context.Context, userID int64) (int64, error) {
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(DISTINCT o.id) FROM objects o JOIN defects d ON d.object_id = o.id WHERE d.assignee_id = ?`, userID)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func scanObjects(rows *sql.Rows) ([]models.Object, error) {
	var out []models.Object
	for rows.Next() {
		var o models.Object
		var start, end sql.NullString
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.Address, &start, &end, &o.Created, &o.Updated); err != nil {
			return nil, err
		}
		if start.Valid {
			o.StartDate = &start.String
		}
		if end.Valid {
			o.EndDate = &end.String
		}
		out = append(out, o)
	}

	return out, rows.Err()
}
