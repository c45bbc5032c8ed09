package repository

import (
	"context"

	"github.com/garnizeh/snaglist/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)
}

type ObjectRepo interface {
	CreateObject(ctx context.Context, o *models.Object) (int64, error)
	GetObjectByID(ctx context.Context, id int64) (*models.Object, error)
	UpdateObject(ctx context.Context, o *models.Object) error
	DeleteObject(ctx context.Context, id int64) error
	ListObjects(ctx context.Context, limit, offset int) ([]models.Object, error)
	CountObjects(ctx context.Context) (int64, error)
	// ListObjectsForAssignee returns only objects that currently have at
	// least one defect assigned to the given user (engineer row filter).
	ListObjectsForAssignee(ctx context.Context, userID int64, limit, offset int) ([]models.Object, error)
	CountObjectsForAssignee(ctx context.Context, userID int64) (int64, error)
}

// DefectFilter narrows defect list queries. Nil fields are not applied.
type DefectFilter struct {
	ObjectID   *int64
	AssigneeID *int64
	StatusID   *int64
	Limit      int
	Offset     int
}

type DefectRepo interface {
	CreateDefect(ctx context.Context, d *models.Defect) (int64, error)
	GetDefectByID(ctx context.Context, id int64) (*models.Defect, error)
	UpdateDefect(ctx context.Context, d *models.Defect) error
	DeleteDefect(ctx context.Context, id int64) error
	ListDefects(ctx context.Context, f DefectFilter) ([]models.Defect, error)
	CountDefects(ctx context.Context, f DefectFilter) (int64, error)
	ListDefectsByObject(ctx context.Context, objectID int64) ([]models.Defect, error)
	ListDefectsByAssignee(ctx context.Context, userID int64) ([]models.Defect, error)
}

type CommentRepo interface {
	CreateComment(ctx context.Context, c *models.Comment) (int64, error)
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
	ListCommentsByDefect(ctx context.Context, defectID int64) ([]models.Comment, error)
}

type AttachmentRepo interface {
	CreateAttachment(ctx context.Context, a *models.Attachment) (int64, error)
	GetAttachmentByID(ctx context.Context, id int64) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
	ListAttachmentsByDefect(ctx context.Context, defectID int64) ([]models.Attachment, error)
}

// HistoryRepo is append-only: entries are inserted and read back newest
// first, never updated or deleted.
type HistoryRepo interface {
	InsertChange(ctx context.Context, e *models.ChangeEntry) (int64, error)
	ListChanges(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]models.ChangeEntry, error)
	CountChanges(ctx context.Context, entityType string, entityID int64) (int64, error)
}

// Store bundles all entity repositories backed by one database.
type Store interface {
	UserRepo
	ObjectRepo
	DefectRepo
	CommentRepo
	AttachmentRepo
	HistoryRepo
}

// TxStore is a Store that can run a function inside one atomic unit of work.
// The Store passed to fn is bound to the transaction; if fn returns an error
// everything it did is rolled back.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}
