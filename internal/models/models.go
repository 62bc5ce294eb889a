package models

import (
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 60 * time.Second
	// Temperature is kept low so repeated requests produce consistent code.
	Temperature float32 = 0.1
)

// Options are the per-call knobs a caller may override. Zero values take defaults.
type Options struct {
	MaxRetries      *int          `json:"max_retries,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty"`
	ModelName       string        `json:"model,omitempty"`
	MaxOutputTokens int32         `json:"max_output_tokens,omitempty"`
}

// Retries returns a pointer suitable for Options.MaxRetries.
func Retries(n int) *int { return &n }

// GenerationRequest is one dispatch attempt. It is never mutated; a retry
// derives a new value with NextAttempt.
type GenerationRequest struct {
	Description     string
	Credential      string
	Prompt          string
	ModelName       string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
	MaxRetries      int
	Attempt         int
}

// CanRetry reports whether another attempt is allowed after this one.
func (r GenerationRequest) CanRetry() bool { return r.Attempt < r.MaxRetries }

// NextAttempt returns a copy of r for the following attempt.
func (r GenerationRequest) NextAttempt() GenerationRequest {
	r.Attempt++
	return r
}

// GenerationResult is a successful generation. Code is non-empty and holds a
// complete HTML document.
type GenerationResult struct {
	Code     string        `json:"code"`
	Model    string        `json:"model"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// Status is the lifecycle state of an asynchronous generation job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// JobError is the failure recorded on a job.
type JobError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Job tracks one generation run in the background. Credentials are never stored on it.
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Model     string    `json:"model,omitempty"`
	Attempt   int       `json:"attempt"`
	Code      string    `json:"code,omitempty"`
	Error     *JobError `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
