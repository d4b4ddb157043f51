package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldGroupID       = "group_id"
	FieldUserID        = "user_id"
	FieldProduct       = "product"
	FieldCategory      = "category"
	FieldLocation      = "location"
	FieldType          = "transaction_type"
	FieldQuantity      = "quantity_change"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldBucket        = "bucket"
	FieldCacheKey      = "cache_key"
	FieldCount         = "count"
	FieldDuration      = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentReport   = "report"
	ComponentCache    = "cache"
	ComponentStore    = "store"
	ComponentAMQP     = "amqp"
	ComponentHTTP     = "http"
	ComponentBackfill = "backfill"
)
