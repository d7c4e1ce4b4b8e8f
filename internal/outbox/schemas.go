package outbox

const activityTransitionedSchema = `{
  "type": "object",
  "title": "ActivityTransitioned",
  "properties": {
    "event_id": {"type": "string"},
    "user_id": {"type": "integer"},
    "date": {"type": "string", "format": "date"},
    "transition": {"type": "string", "enum": ["activity_opened", "activity_closed"]},
    "category": {"type": "string"},
    "start": {"type": "string"},
    "end": {"type": "string"},
    "duration_minutes": {"type": "number"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "user_id", "date", "transition", "category", "start", "duration_minutes", "occurred_at"],
  "additionalProperties": false
}`

const sessionClosedSchema = `{
  "type": "object",
  "title": "SessionClosed",
  "properties": {
    "event_id": {"type": "string"},
    "user_id": {"type": "integer"},
    "date": {"type": "string", "format": "date"},
    "ended_at": {"type": "string"},
    "categories": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {"minutes": {"type": "number"}, "count": {"type": "integer"}},
        "required": ["minutes", "count"]
      }
    },
    "total_minutes": {"type": "number"},
    "net_work_minutes": {"type": "number"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "user_id", "date", "ended_at", "categories", "total_minutes", "net_work_minutes", "occurred_at"],
  "additionalProperties": false
}`
