package tracing

// Span attribute keys for monitoring-engine tracing.
const (
	AttrPaneID    = "pane.id"
	AttrPaneRole  = "pane.role"
	AttrCycleID   = "cycle.id"
	AttrStrategy  = "clear.strategy"
	AttrRetry     = "clear.retry_count"
	AttrErrorType = "error.type"
)

// Span name prefixes for consistent naming across cycle phases.
const (
	SpanPrefixCapture = "capture."
	SpanPrefixClear   = "clear."
	SpanPrefixReport  = "report."
	SpanPrefixCycle   = "cycle."
)

// Event names for span events.
const (
	EventPaneCaptured  = "pane.captured"
	EventPaneChanged   = "pane.changed"
	EventClearVerified = "clear.verified"
	EventReportSent    = "report.sent"
	EventReportSkipped = "report.skipped"
)
