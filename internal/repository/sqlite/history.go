package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/snaglist/pkg/models"
)

// History is append-only: there is deliberately no update or delete here.

func (r *SQLiteRepo) InsertChange(ctx context.Context, e *models.ChangeEntry) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("change entry is nil")
	}

	if e.Changed == 0 {
		e.Changed = now()
	}
	res, err := r.q.ExecContext(ctx, `INSERT INTO change_history (entity_type, entity_id, user_id, action, changes_json, changed) VALUES (?, ?, ?, ?, ?, ?)`,
		e.EntityType, e.EntityID, e.UserID, e.Action, e.ChangesJSON, e.Changed)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// ListChanges returns entries newest first; ties on changed are broken by
// insertion order (the monotonic rowid).
func (r *SQLiteRepo) ListChanges(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]models.ChangeEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.QueryContext(ctx, `SELECT id, entity_type, entity_id, user_id, action, changes_json, changed FROM change_history WHERE entity_type = ? AND entity_id = ? ORDER BY changed DESC, id DESC LIMIT ? OFFSET ?`,
		entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChangeEntry
	for rows.Next() {
		var e models.ChangeEntry
		var userID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &userID, &e.Action, &e.ChangesJSON, &e.Changed); err != nil {
			return nil, err
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountChanges(ctx context.Context, entityType string, entityID int64) (int64, error) {
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM change_history WHERE entity_type = ? AND entity_id = ?`, entityType, entityID)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}
