package domain

// Job status constants. Transitions: QUEUED -> RUNNING -> SUCCEEDED | FAILED.
// A RUNNING claim interrupted by shutdown is released back to QUEUED;
// terminal states never change.
const (
	JobStatusQueued    = "QUEUED"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
)

// Error kind recorded on a failed job, one per pipeline stage.
const (
	ErrorKindExtraction = "EXTRACTION_FAILED"
	ErrorKindConversion = "CONVERSION_FAILED"
	ErrorKindDelivery   = "DELIVERY_FAILED"
)
