package dto

// SubmitPageRequest is the public submission payload. Either url or
// html+title must be present; the token identifies the submitting user.
type SubmitPageRequest struct {
	Token string `json:"token" binding:"required"`
	URL   string `json:"url" binding:"omitempty,url"`
	HTML  string `json:"html"`
	Title string `json:"title"`
}

// SubmitPageResponse acknowledges that a job was queued. Pipeline
// completion is reported out of band via the job status endpoint.
type SubmitPageResponse struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"job_id"`
}

// JobStatusResponse reports the state of a submitted job.
type JobStatusResponse struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

// RegisterRequest creates or re-registers an account.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	KindleEmail string `json:"kindle_email" binding:"required,email"`
}

// RegisterResponse confirms that a verification email was sent.
type RegisterResponse struct {
	EmailSent bool   `json:"email_sent"`
	Email     string `json:"email"`
}

// VerifyResponse reports the result of an email verification attempt.
type VerifyResponse struct {
	Verified        bool   `json:"verified"`
	AlreadyVerified bool   `json:"already_verified"`
	APIToken        string `json:"api_token"`
}
