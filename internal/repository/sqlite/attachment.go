package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/snaglist/pkg/models"
)

func (r *SQLiteRepo) CreateAttachment(ctx context.Context, a *models.Attachment) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("attachment is nil")
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO attachments (defect_id, user_id, file_name, storage_key, size, created) VALUES (?, ?, ?, ?, ?, ?)`,
		a.DefectID, a.UserID, a.FileName, a.StorageKey, a.Size, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAttachmentByID(ctx context.Context, id int64) (*models.Attachment, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, defect_id, user_id, file_name, storage_key, size, created FROM attachments WHERE id = ?`, id)
	var a models.Attachment
	if err := row.Scan(&a.ID, &a.DefectID, &a.UserID, &a.FileName, &a.StorageKey, &a.Size, &a.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &a, nil
}

func (r *SQLiteRepo) DeleteAttachment(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListAttachmentsByDefect(ctx context.Context, defectID int64) ([]models.Attachment, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, defect_id, user_id, file_name, storage_key, size, created FROM attachments WHERE defect_id = ? ORDER BY created DESC, id DESC`, defectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.DefectID, &a.UserID, &a.FileName, &a.StorageKey, &a.Size, &a.Created); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}
