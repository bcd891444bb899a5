package log

// Canonical field names for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"

	FieldEndpoint = "endpoint"
	FieldMethod   = "method"
	FieldURL      = "url"
	FieldStatus   = "status"

	FieldTool          = "tool"
	FieldInteractionID = "interaction_id"
	FieldClientID      = "client_id"
	FieldDurationMs    = "duration_ms"
	FieldRuntime       = "runtime"
	FieldOldState      = "old_state"
	FieldNewState      = "new_state"
)
