package model

import "time"

// User holds the credentials and delivery address for one account. APIToken
// authenticates submissions; EmailToken is the one-shot verification token
// mailed out at registration.
type User struct {
	ID          int64     `db:"id"`
	Email       string    `db:"email"`
	KindleEmail string    `db:"kindle_email"`
	APIToken    string    `db:"api_token"`
	EmailToken  string    `db:"email_token"`
	Verified    bool      `db:"verified"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Job is the persisted job record as seen by the API service.
type Job struct {
	JobID          string     `db:"job_id"`
	URL            string     `db:"url"`
	HTML           string     `db:"html"`
	Title          string     `db:"title"`
	RecipientEmail string     `db:"recipient_email"`
	Status         string     `db:"status"`
	ErrorKind      string     `db:"error_kind"`
	ErrorMessage   string     `db:"error_message"`
	CreatedAt      time.Time  `db:"created_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}
