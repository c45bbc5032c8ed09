package history

// JSON schemas for the change documents, keyed by entity type. Snapshot
// schemas cover CREATE/DELETE records (field -> value); update schemas cover
// UPDATE records (field -> {old,new}). additionalProperties is false so a
// diff carrying a key outside the entity's attribute set is rejected at
// write time instead of being misread later.

const objectSnapshotSchema = `{
	"type": "object",
	"properties": {
		"name":        {"type": "string"},
		"description": {"type": "string"},
		"address":     {"type": "string"},
		"start_date":  {"type": ["string", "null"]},
		"end_date":    {"type": ["string", "null"]}
	},
	"required": ["name", "description", "address", "start_date", "end_date"],
	"additionalProperties": false
}`

const objectUpdateSchema = `{
	"type": "object",
	"properties": {
		"name":        {"$ref": "#/$defs/pair"},
		"description": {"$ref": "#/$defs/pair"},
		"address":     {"$ref": "#/$defs/pair"},
		"start_date":  {"$ref": "#/$defs/pair"},
		"end_date":    {"$ref": "#/$defs/pair"}
	},
	"minProperties": 1,
	"additionalProperties": false,
	"$defs": {
		"pair": {
			"type": "object",
			"required": ["old", "new"],
			"additionalProperties": false,
			"properties": {"old": {}, "new": {}}
		}
	}
}`

const defectSnapshotSchema = `{
	"type": "object",
	"properties": {
		"title":       {"type": "string"},
		"description": {"type": "string"},
		"object_id":   {"type": "integer"},
		"status_id":   {"type": "integer", "minimum": 1, "maximum": 5},
		"priority_id": {"type": "integer", "minimum": 1, "maximum": 3},
		"assignee_id": {"type": ["integer", "null"]},
		"reporter_id": {"type": "integer"},
		"due_date":    {"type": ["string", "null"]},
		"completed":   {"type": ["integer", "null"]}
	},
	"required": ["title", "description", "object_id", "status_id", "priority_id", "assignee_id", "reporter_id", "due_date", "completed"],
	"additionalProperties": false
}`

const defectUpdateSchema = `{
	"type": "object",
	"properties": {
		"title":       {"$ref": "#/$defs/pair"},
		"description": {"$ref": "#/$defs/pair"},
		"object_id":   {"$ref": "#/$defs/pair"},
		"status_id":   {"$ref": "#/$defs/pair"},
		"priority_id": {"$ref": "#/$defs/pair"},
		"assignee_id": {"$ref": "#/$defs/pair"},
		"due_date":    {"$ref": "#/$defs/pair"},
		"completed":   {"$ref": "#/$defs/pair"}
	},
	"minProperties": 1,
	"additionalProperties": false,
	"$defs": {
		"pair": {
			"type": "object",
			"required": ["old", "new"],
			"additionalProperties": false,
			"properties": {"old": {}, "new": {}}
		}
	}
}`
