// Package history computes and persists the field-level audit diff for every
// object and defect mutation. Records are validated against the entity's
// attribute schema before insert and are never touched again afterwards.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garnizeh/snaglist/pkg/models"
	"github.com/garnizeh/snaglist/pkg/repository"
	"github.com/qri-io/jsonschema"
)

// Action is the audit action recorded with every entry.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Audited entity types. Comments and attachments are not audited.
const (
	EntityObject = "object"
	EntityDefect = "defect"
)

// Recorder builds, validates and persists change documents.
type Recorder struct {
	snapshot map[string]*jsonschema.Schema
	update   map[string]*jsonschema.Schema
}

// NewRecorder compiles the per-entity change document schemas.
func NewRecorder() (*Recorder, error) {
	rec := &Recorder{
		snapshot: make(map[string]*jsonschema.Schema),
		update:   make(map[string]*jsonschema.Schema),
	}
	for entity, raw := range map[string]string{
		EntityObject: objectSnapshotSchema,
		EntityDefect: defectSnapshotSchema,
	} {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(raw), rs); err != nil {
			return nil, fmt.Errorf("compile %s snapshot schema: %w", entity, err)
		}
		rec.snapshot[entity] = rs
	}
	for entity, raw := range map[string]string{
		EntityObject: objectUpdateSchema,
		EntityDefect: defectUpdateSchema,
	} {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(raw), rs); err != nil {
			return nil, fmt.Errorf("compile %s update schema: %w", entity, err)
		}
		rec.update[entity] = rs
	}
	return rec, nil
}

// ObjectSnapshot is the audited attribute map of an object.
func ObjectSnapshot(o *models.Object) map[string]any {
	return map[string]any{
		"name":        o.Name,
		"description": o.Description,
		"address":     o.Address,
		"start_date":  strOrNil(o.StartDate),
		"end_date":    strOrNil(o.EndDate),
	}
}

// DefectSnapshot is the audited attribute map of a defect.
func DefectSnapshot(d *models.Defect) map[string]any {
	return map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"object_id":   d.ObjectID,
		"status_id":   d.StatusID,
		"priority_id": d.PriorityID,
		"assignee_id": intOrNil(d.AssigneeID),
		"reporter_id": d.ReporterID,
		"due_date":    strOrNil(d.DueDate),
		"completed":   intOrNil(d.Completed),
	}
}

// Diff returns field -> {old,new} for every attribute whose value differs
// between the snapshots. Unchanged attributes are omitted entirely: absence
// of a key means "unchanged", not "unknown".
func Diff(before, after map[string]any) map[string]any {
	changes := make(map[string]any)
	for k, oldVal := range before {
		newVal, ok := after[k]
		if !ok {
			continue
		}
		if oldVal != newVal {
			changes[k] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	return changes
}

// Record validates and inserts one audit entry through the given store, which
// is expected to be bound to the same transaction as the entity mutation.
// For CREATE the document is the full after snapshot, for DELETE the full
// before snapshot, for UPDATE the changed-fields diff. An UPDATE whose diff
// is empty records nothing and returns (nil, nil).
func (rec *Recorder) Record(ctx context.Context, store repository.HistoryRepo, entityType string, entityID int64, actorID *int64, action Action, before, after map[string]any) (*models.ChangeEntry, error) {
	var doc map[string]any
	var schema *jsonschema.Schema

	switch action {
	case ActionCreate:
		doc = after
		schema = rec.snapshot[entityType]
	case ActionDelete:
		doc = before
		schema = rec.snapshot[entityType]
	case ActionUpdate:
		doc = Diff(before, after)
		if len(doc) == 0 {
			return nil, nil
		}
		schema = rec.update[entityType]
	default:
		return nil, fmt.Errorf("unknown history action %q", action)
	}
	if schema == nil {
		return nil, fmt.Errorf("entity type %q is not audited", entityType)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal change document: %w", err)
	}
	verrs, err := schema.ValidateBytes(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("validate change document: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("change document for %s %d rejected: %v", entityType, entityID, verrs)
	}

	entry := &models.ChangeEntry{
		EntityType:  entityType,
		EntityID:    entityID,
		UserID:      actorID,
		Action:      string(action),
		ChangesJSON: string(b),
		Changed:     time.Now().UTC().UnixMilli(),
	}
	id, err := store.InsertChange(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("insert change entry: %w", err)
	}
	entry.ID = id
	return entry, nil
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func intOrNil(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
