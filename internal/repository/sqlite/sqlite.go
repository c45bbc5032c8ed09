package sqlite

import (
	"context"
	"database/sql"
	"io"
	"time"

	"log/slog"

	"github.com/garnizeh/snaglist/internal/db"
	"github.com/garnizeh/snaglist/pkg/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the same repository
// code runs standalone or inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB // nil when bound to a transaction
	q      querier
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.ObjectRepo = (*SQLiteRepo)(nil)
var _ repository.DefectRepo = (*SQLiteRepo)(nil)
var _ repository.CommentRepo = (*SQLiteRepo)(nil)
var _ repository.AttachmentRepo = (*SQLiteRepo)(nil)
var _ repository.HistoryRepo = (*SQLiteRepo)(nil)
var _ repository.TxStore = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, q: conn.GetConn(), logger: logger}
}

// InTx runs fn with a Store bound to a single transaction. A nil error
// commits; any error rolls everything back and is returned unchanged.
// Calling InTx on a transaction-bound store joins the open transaction.
func (r *SQLiteRepo) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if r.conn == nil {
		return fn(r)
	}
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	txRepo := &SQLiteRepo{q: tx, logger: r.logger}
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("rollback failed", slog.Any("err", rbErr))
		}
		return err
	}
	return tx.Commit()
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}
