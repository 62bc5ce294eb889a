package generation

import (
	"context"
	"time"
)

// Stage names a step of a generation reported through a ProgressFunc.
type Stage string

const (
	StageDispatching Stage = "dispatching"
	StageRetrying    Stage = "retrying"
	StageSucceeded   Stage = "succeeded"
	StageFailed      Stage = "failed"
)

// Progress describes one step. Delay is set for StageRetrying and Kind for
// StageRetrying and StageFailed.
type Progress struct {
	Stage      Stage         `json:"stage"`
	Attempt    int           `json:"attempt"`
	MaxRetries int           `json:"max_retries"`
	Delay      time.Duration `json:"delay,omitempty"`
	Kind       string        `json:"kind,omitempty"`
}

// ProgressFunc receives progress synchronously from the generating goroutine.
type ProgressFunc func(Progress)

type progressKey struct{}

// WithProgress attaches fn to ctx so Generate reports its steps to it.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func notify(ctx context.Context, p Progress) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(p)
	}
}
