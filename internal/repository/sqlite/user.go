package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/snaglist/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO users (email, full_name, password_hash, role, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.FullName, u.PasswordHash, u.Role, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx, `SELECT id, email, full_name, password_hash, role, created, updated FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx, `SELECT id, email, full_name, password_hash, role, created, updated FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepo) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var fullName, pw sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &fullName, &pw, &u.Role, &u.Created, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if fullName.Valid {
		u.FullName = &fullName.String
	}
	if pw.Valid {
		u.PasswordHash = &pw.String
	}

	return &u, nil
}

func (r *SQLiteRepo) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	_, err := r.q.ExecContext(ctx, `UPDATE users SET email = ?, full_name = ?, password_hash = ?, role = ?, updated = ? WHERE id = ?`,
		u.Email, u.FullName, u.PasswordHash, u.Role, now(), u.ID)
	return err
}

func (r *SQLiteRepo) DeleteUser(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, email, full_name, password_hash, role, created, updated FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		var fullName, pw sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &fullName, &pw, &u.Role, &u.Created, &u.Updated); err != nil {
			return nil, err
		}
		if fullName.Valid {
			u.FullName = &fullName.String
		}
		if pw.Valid {
			u.PasswordHash = &pw.String
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}
