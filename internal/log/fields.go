package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCollection = "collection"
	FieldUserID     = "user_id"
	FieldClientID   = "client_id"
	FieldSaleID     = "sale_id"
	FieldQuoteID    = "quote_id"
	FieldCount      = "count"
	FieldRevision   = "revision"
	FieldBackend    = "backend"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
)

// Standard component names.
const (
	ComponentApp      = "app"
	ComponentSync     = "sync"
	ComponentStore    = "store"
	ComponentWorkflow = "workflow"
	ComponentHTTP     = "http"
	ComponentEvents   = "events"
	ComponentExport   = "export"
)

// Standard operation names.
const (
	OpConvert  = "convert"
	OpMarkPaid = "mark_paid"
	OpDelete   = "delete"
	OpCreate   = "create"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
