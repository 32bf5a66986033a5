package domain

import "time"

// Job is the unit of pipeline work: one URL (or raw HTML document) to
// extract, convert and deliver to a single recipient. RecipientEmail is a
// snapshot taken at enqueue time and is never re-resolved, so a user
// changing their delivery address does not affect in-flight jobs.
type Job struct {
	JobID          string
	URL            string
	HTML           string
	Title          string
	RecipientEmail string
	Status         string
	ErrorKind      string
	ErrorMessage   string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// JobMessage is the queue envelope. Only the job id travels over RabbitMQ;
// the durable record lives in the jobs table.
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}
