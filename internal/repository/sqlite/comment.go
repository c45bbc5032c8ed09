package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/snaglist/pkg/models"
)

func (r *SQLiteRepo) CreateComment(ctx context.Context, c *models.Comment) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("comment is nil")
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO comments (defect_id, user_id, body, created, updated) VALUES (?, ?, ?, ?, ?)`,
		c.DefectID, c.UserID, c.Body, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, defect_id, user_id, body, created, updated FROM comments WHERE id = ?`, id)
	var c models.Comment
	if err := row.Scan(&c.ID, &c.DefectID, &c.UserID, &c.Body, &c.Created, &c.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}

func (r *SQLiteRepo) UpdateComment(ctx context.Context, c *models.Comment) error {
	if c == nil {
		return fmt.Errorf("comment is nil")
	}

	_, err := r.q.ExecContext(ctx, `UPDATE comments SET body = ?, updated = ? WHERE id = ?`, c.Body, now(), c.ID)
	return err
}

func (r *SQLiteRepo) DeleteComment(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListCommentsByDefect(ctx context.Context, defectID int64) ([]models.Comment, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, defect_id, user_id, body, created, updated FROM comments WHERE defect_id = ? ORDER BY created DESC, id DESC`, defectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.DefectID, &c.UserID, &c.Body, &c.Created, &c.Updated); err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}
