package tracing

// Span names.
const (
	SpanLoadAll    = "loader.load_all"
	SpanLoadFile   = "loader.load_file"
	SpanLoadUpload = "loader.load_upload"
	SpanHTTP       = "http.request"
)

// Span attribute keys.
const (
	AttrBatchID    = "load.batch_id"
	AttrDataDir    = "load.dir"
	AttrPattern    = "load.pattern"
	AttrFileCount  = "load.files"
	AttrFailures   = "load.failures"
	AttrFilename   = "file.name"
	AttrProductID  = "product.id"
	AttrRowCount   = "table.rows"
	AttrColCount   = "table.columns"
	AttrHTTPMethod = "http.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.status_code"

	AttrErrorMessage = "error.message"
)

// Event names.
const (
	EventFileSkipped = "file.skipped"
)
