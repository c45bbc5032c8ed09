package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// User is an account in the system. A user created by a manager starts out
// "pending": only email and role are set, FullName and PasswordHash stay nil
// until the holder completes registration.
type User struct {
	ID           int64   `json:"id" db:"id"`
	Email        string  `json:"email" db:"email" validate:"required,email"`
	FullName     *string `json:"full_name,omitempty" db:"full_name"`
	PasswordHash *string `json:"-" db:"password_hash"`
	Role         string  `json:"role" db:"role" validate:"required"`
	Created      int64   `json:"created" db:"created"`
	Updated      int64   `json:"updated" db:"updated"`
}

// Pending reports whether the account has not completed registration yet.
func (u *User) Pending() bool {
	return u.FullName == nil || u.PasswordHash == nil
}

// Object is a construction site defects are reported against.
type Object struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name" validate:"required"`
	Description string  `json:"description,omitempty" db:"description"`
	Address     string  `json:"address,omitempty" db:"address"`
	StartDate   *string `json:"start_date,omitempty" db:"start_date"`
	EndDate     *string `json:"end_date,omitempty" db:"end_date"`
	Created     int64   `json:"created" db:"created"`
	Updated     int64   `json:"updated" db:"updated"`
}

// Defect is an issue reported against an Object. StatusID and PriorityID hold
// the fixed enum values defined in internal/core; AssigneeID, when set, must
// reference a user with the engineer role.
type Defect struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title" validate:"required"`
	Description string  `json:"description,omitempty" db:"description"`
	ObjectID    int64   `json:"object_id" db:"object_id" validate:"required"`
	StatusID    int64   `json:"status_id" db:"status_id"`
	PriorityID  int64   `json:"priority_id" db:"priority_id"`
	AssigneeID  *int64  `json:"assignee_id,omitempty" db:"assignee_id"`
	ReporterID  int64   `json:"reporter_id" db:"reporter_id"`
	DueDate     *string `json:"due_date,omitempty" db:"due_date"`
	Created     int64   `json:"created" db:"created"`
	Updated     int64   `json:"updated" db:"updated"`
	Completed   *int64  `json:"completed,omitempty" db:"completed"`
}

// Comment is a note left on a defect by its author.
type Comment struct {
	ID       int64  `json:"id" db:"id"`
	DefectID int64  `json:"defect_id" db:"defect_id"`
	UserID   int64  `json:"user_id" db:"user_id"`
	Body     string `json:"body" db:"body" validate:"required"`
	Created  int64  `json:"created" db:"created"`
	Updated  int64  `json:"updated" db:"updated"`
}

// Attachment is a file uploaded against a defect. StorageKey names the blob
// in the blob store and is never derived from the client-supplied filename.
type Attachment struct {
	ID         int64  `json:"id" db:"id"`
	DefectID   int64  `json:"defect_id" db:"defect_id"`
	UserID     int64  `json:"user_id" db:"user_id"`
	FileName   string `json:"file_name" db:"file_name"`
	StorageKey string `json:"-" db:"storage_key"`
	Size       int64  `json:"size" db:"size"`
	Created    int64  `json:"created" db:"created"`
}

// ChangeEntry is one immutable audit record of a create/update/delete applied
// to an object or a defect. ChangesJSON holds the structured diff document:
// a full field snapshot for CREATE/DELETE, field -> {old,new} pairs for UPDATE.
type ChangeEntry struct {
	ID          int64  `json:"id" db:"id"`
	EntityType  string `json:"entity_type" db:"entity_type"`
	EntityID    int64  `json:"entity_id" db:"entity_id"`
	UserID      *int64 `json:"user_id,omitempty" db:"user_id"`
	Action      string `json:"action" db:"action"`
	ChangesJSON string `json:"changes" db:"changes_json"`
	Changed     int64  `json:"changed" db:"changed"`
}
