package workflow_test

import (
	"context"
	"path/filepath"
	"testing"

	dbfs "github.com/garnizeh/snaglist/db"
	"github.com/garnizeh/snaglist/internal/blob"
	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/db"
	"github.com/garnizeh/snaglist/internal/history"
	sqlite "github.com/garnizeh/snaglist/internal/repository/sqlite"
	"github.com/garnizeh/snaglist/internal/workflow"
	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
)

// fixture bundles a service over a migrated on-disk database with one
// registered user per role.
type fixture struct {
	svc   *workflow.Service
	store repository.TxStore
	mgr   core.Actor
	eng   core.Actor
	obs   core.Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	d, err := db.New(ctx, filepath.Join(dir, "snaglist.db"))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := sqlite.New(d, nil)
	rec, err := history.NewRecorder()
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	blobs, err := blob.NewFSStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	f := &fixture{svc: workflow.New(store, rec, blobs, nil), store: store}
	f.mgr = f.createUser(t, "boss@site.io", "manager")
	f.eng = f.createUser(t, "eng@site.io", "engineer")
	f.obs = f.createUser(t, "watch@site.io", "observer")
	return f
}

// createUser inserts a registered account directly through the repository,
// bypassing the workflow so fixtures do not depend on what they test.
func (f *fixture) createUser(t *testing.T, email, role string) core.Actor {
	t.Helper()
	name := "Test " + role
	hash := "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixxx"
	id, err := f.store.CreateUser(context.Background(), &models.User{
		Email:        email,
		FullName:     &name,
		PasswordHash: &hash,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create %s: %v", role, err)
	}
	return core.Actor{UserID: id, Role: core.Role(role)}
}

func (f *fixture) createObject(t *testing.T) *models.Object {
	t.Helper()
	o, err := f.svc.CreateObject(context.Background(), f.mgr, workflow.ObjectInput{
		Name:    "residential tower a",
		Address: "5 quay street",
	})
	if err != nil {
		t.Fatalf("create object: %v", err)
	}
	return o
}

func (f *fixture) createDefect(t *testing.T, objectID int64) *models.Defect {
	t.Helper()
	d, err := f.svc.CreateDefect(context.Background(), f.mgr, workflow.DefectInput{
		Title:    "cracked window frame",
		ObjectID: objectID,
	})
	if err != nil {
		t.Fatalf("create defect: %v", err)
	}
	return d
}

// assignedDefect creates a defect already assigned to the fixture engineer.
func (f *fixture) assignedDefect(t *testing.T, objectID int64) *models.Defect {
	t.Helper()
	d := f.createDefect(t, objectID)
	d, err := f.svc.AssignDefect(context.Background(), f.mgr, d.ID, &f.eng.UserID)
	if err != nil {
		t.Fatalf("assign defect: %v", err)
	}
	return d
}

func (f *fixture) history(t *testing.T, entityType string, entityID int64) []models.ChangeEntry {
	t.Helper()
	entries, err := f.store.ListChanges(context.Background(), entityType, entityID, 100, 0)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	return entries
}

// checkCompletedInvariant asserts completed is set iff the status is terminal.
func checkCompletedInvariant(t *testing.T, d *models.Defect) {
	t.Helper()
	terminal := core.Status(d.StatusID).Terminal()
	if terminal && d.Completed == nil {
		t.Fatalf("defect %d: terminal status %d without completed", d.ID, d.StatusID)
	}
	if !terminal && d.Completed != nil {
		t.Fatalf("defect %d: completed set in non-terminal status %d", d.ID, d.StatusID)
	}
}
