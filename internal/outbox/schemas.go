package outbox

const emissionRecordedSchema = `{
  "type": "object",
  "title": "EmissionRecorded",
  "properties": {
    "record_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_type": {"type": "string"},
    "description": {"type": "string"},
    "emissions": {"type": "integer"},
    "date": {"type": "string"},
    "recorded_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "user_id", "activity_type", "emissions", "date", "recorded_at"],
  "additionalProperties": false
}`
