package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldRecordID   = "record_id"
	FieldRecordKind = "record_kind"
	FieldAmount     = "amount"
	FieldEndpoint   = "endpoint"
	FieldBackend    = "backend"
	FieldRevision   = "revision"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentSync    = "sync"
	ComponentSheets  = "sheets"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
)

// Standard operation names.
const (
	OpLoad    = "load"
	OpSave    = "save"
	OpAdd     = "add"
	OpDelete  = "delete"
	OpReset   = "reset"
	OpReplace = "replace"
	OpPush    = "push"
	OpPull    = "pull"
	OpImport  = "import"
	OpExport  = "export"
)
