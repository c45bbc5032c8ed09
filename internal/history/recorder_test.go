package history

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/garnizeh/snaglist/pkg/models"
)

// fakeHistoryRepo captures inserted entries in memory.
type fakeHistoryRepo struct {
	entries []*models.ChangeEntry
	failErr error
}

func (f *fakeHistoryRepo) InsertChange(ctx context.Context, e *models.ChangeEntry) (int64, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

func (f *fakeHistoryRepo) ListChanges(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]models.ChangeEntry, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) CountChanges(ctx context.Context, entityType string, entityID int64) (int64, error) {
	return int64(len(f.entries)), nil
}

func sampleDefect() *models.Defect {
	return &models.Defect{
		ID:         3,
		Title:      "leaking pipe",
		ObjectID:   1,
		StatusID:   1,
		PriorityID: 2,
		ReporterID: 1,
	}
}

func TestDiff(t *testing.T) {
	before := DefectSnapshot(sampleDefect())

	changed := sampleDefect()
	changed.StatusID = 2
	id := int64(42)
	changed.AssigneeID = &id
	after := DefectSnapshot(changed)

	d := Diff(before, after)
	if len(d) != 2 {
		t.Fatalf("diff keys = %v, want status_id and assignee_id only", d)
	}
	status := d["status_id"].(map[string]any)
	if status["old"] != int64(1) || status["new"] != int64(2) {
		t.Fatalf("status_id diff = %v", status)
	}
	assignee := d["assignee_id"].(map[string]any)
	if assignee["old"] != nil || assignee["new"] != int64(42) {
		t.Fatalf("assignee_id diff = %v", assignee)
	}
}

func TestDiffIdentical(t *testing.T) {
	before := DefectSnapshot(sampleDefect())
	after := DefectSnapshot(sampleDefect())
	if d := Diff(before, after); len(d) != 0 {
		t.Fatalf("identical snapshots produced diff %v", d)
	}
}

func TestRecordCreate(t *testing.T) {
	rec, err := NewRecorder()
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	repo := &fakeHistoryRepo{}
	actor := int64(1)

	entry, err := rec.Record(context.Background(), repo, EntityDefect, 3, &actor, ActionCreate, nil, DefectSnapshot(sampleDefect()))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry.Action != "CREATE" || entry.EntityType != "defect" || entry.EntityID != 3 {
		t.Fatalf("entry = %+v", entry)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(entry.ChangesJSON), &doc); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	// full snapshot, defaults included
	if doc["status_id"].(float64) != 1 || doc["priority_id"].(float64) != 2 {
		t.Fatalf("snapshot defaults missing: %v", doc)
	}
	if _, ok := doc["assignee_id"]; !ok {
		t.Fatal("snapshot must carry the nil assignee explicitly")
	}
}

func TestRecordUpdateOnlyChangedKeys(t *testing.T) {
	rec, _ := NewRecorder()
	repo := &fakeHistoryRepo{}
	actor := int64(1)

	before := sampleDefect()
	after := sampleDefect()
	after.Title = "leaking pipe, second floor"

	entry, err := rec.Record(context.Background(), repo, EntityDefect, 3, &actor, ActionUpdate, DefectSnapshot(before), DefectSnapshot(after))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(entry.ChangesJSON), &doc); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("update doc = %v, want only title", doc)
	}
	pair := doc["title"].(map[string]any)
	if pair["old"] != "leaking pipe" || pair["new"] != "leaking pipe, second floor" {
		t.Fatalf("title pair = %v", pair)
	}
}

func TestRecordNoopUpdateRecordsNothing(t *testing.T) {
	rec, _ := NewRecorder()
	repo := &fakeHistoryRepo{}
	actor := int64(1)

	snap := DefectSnapshot(sampleDefect())
	entry, err := rec.Record(context.Background(), repo, EntityDefect, 3, &actor, ActionUpdate, snap, snap)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry != nil {
		t.Fatalf("no-op update produced entry %+v", entry)
	}
	if len(repo.entries) != 0 {
		t.Fatal("no-op update inserted a record")
	}
}

func TestRecordRejectsUnknownAttribute(t *testing.T) {
	rec, _ := NewRecorder()
	repo := &fakeHistoryRepo{}
	actor := int64(1)

	before := DefectSnapshot(sampleDefect())
	after := DefectSnapshot(sampleDefect())
	before["severity"] = "high" // outside the defect attribute set
	after["severity"] = "low"

	_, err := rec.Record(context.Background(), repo, EntityDefect, 3, &actor, ActionUpdate, before, after)
	if err == nil {
		t.Fatal("expected schema rejection for unknown attribute")
	}
	if !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("err = %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatal("rejected document was still inserted")
	}
}

func TestRecordDeleteObject(t *testing.T) {
	rec, _ := NewRecorder()
	repo := &fakeHistoryRepo{}
	actor := int64(1)

	start := "2026-01-10"
	o := &models.Object{ID: 5, Name: "tower b", Address: "12 dock rd", StartDate: &start}
	entry, err := rec.Record(context.Background(), repo, EntityObject, o.ID, &actor, ActionDelete, ObjectSnapshot(o), nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(entry.ChangesJSON), &doc); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	if doc["name"] != "tower b" || doc["start_date"] != "2026-01-10" {
		t.Fatalf("delete snapshot = %v", doc)
	}
	if doc["end_date"] != nil {
		t.Fatalf("end_date = %v, want null", doc["end_date"])
	}
}

func TestRecordUnknownEntityType(t *testing.T) {
	rec, _ := NewRecorder()
	repo := &fakeHistoryRepo{}
	_, err := rec.Record(context.Background(), repo, "comment", 1, nil, ActionCreate, nil, map[string]any{"body": "x"})
	if err == nil {
		t.Fatal("comments are not audited, expected error")
	}
}
