package generation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/app-builder/internal/failure"
	"github.com/example/app-builder/internal/metrics"
	"github.com/example/app-builder/internal/models"
	"github.com/example/app-builder/internal/providers/llm"
	"github.com/example/app-builder/internal/validate"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Defaults fill in options a caller leaves unset.
type Defaults struct {
	Model           string
	MaxRetries      *int
	Timeout         time.Duration
	MaxOutputTokens int32
}

// Generator turns descriptions into HTML documents through a model client.
// It holds no per-request state and is safe for concurrent use.
type Generator struct {
	factory  llm.Factory
	logger   *zap.Logger
	metrics  *metrics.Collector
	defaults Defaults
	sleep    Sleeper
}

type Option func(*Generator)

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(g *Generator) { g.metrics = c }
}

// WithDefaults overrides the fallback options. Zero fields and a nil
// MaxRetries keep the built-in values.
func WithDefaults(d Defaults) Option {
	return func(g *Generator) {
		if d.Model != "" {
			g.defaults.Model = d.Model
		}
		if d.MaxRetries != nil && *d.MaxRetries >= 0 {
			g.defaults.MaxRetries = models.Retries(*d.MaxRetries)
		}
		if d.Timeout > 0 {
			g.defaults.Timeout = d.Timeout
		}
		if d.MaxOutputTokens > 0 {
			g.defaults.MaxOutputTokens = d.MaxOutputTokens
		}
	}
}

// WithSleeper replaces the wait between retries.
func WithSleeper(s Sleeper) Option {
	return func(g *Generator) {
		if s != nil {
			g.sleep = s
		}
	}
}

// New returns a Generator dispatching through factory.
func New(factory llm.Factory, opts ...Option) *Generator {
	g := &Generator{
		factory: factory,
		logger:  zap.NewNop(),
		defaults: Defaults{
			Model:      llm.DefaultModel(""),
			MaxRetries: models.Retries(models.DefaultMaxRetries),
			Timeout:    models.DefaultTimeout,
		},
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.metrics.AllowModels(g.defaults.Model)
	return g
}

// GenerateCode is Generate returning only the document.
func (g *Generator) GenerateCode(ctx context.Context, description, credential string, opts models.Options) (string, error) {
	res, err := g.Generate(ctx, description, credential, opts)
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// Generate validates the input, dispatches it to the model and returns the
// cleaned document. Rate-limited attempts are retried with exponential backoff
// up to opts.MaxRetries times. Every failure is a *failure.Error.
func (g *Generator) Generate(ctx context.Context, description, credential string, opts models.Options) (*models.GenerationResult, error) {
	req, err := g.Prepare(description, credential, opts)
	if err != nil {
		return nil, err
	}
	return g.Run(ctx, req)
}

// Run dispatches a request built by Prepare. It does not validate again.
func (g *Generator) Run(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	start := time.Now()

	log := g.logger.With(
		zap.String("request_id", RequestID(ctx)),
		zap.String("model", req.ModelName),
		zap.Int("description_len", utf8.RuneCountInString(req.Description)),
	)
	client := g.factory(req.Credential)
	bo := newBackOff()

	for {
		if ctx.Err() != nil {
			return nil, g.fail(ctx, log, req, start, contextError(ctx))
		}

		log.Debug("dispatching", zap.Int("attempt", req.Attempt))
		notify(ctx, Progress{Stage: StageDispatching, Attempt: req.Attempt, MaxRetries: req.MaxRetries})
		code, model, err := g.attempt(ctx, client, req)
		if err == nil {
			g.metrics.RecordAttempt(req.ModelName, "ok")
			g.metrics.RecordGeneration(metrics.OutcomeSuccess, time.Since(start))
			notify(ctx, Progress{Stage: StageSucceeded, Attempt: req.Attempt, MaxRetries: req.MaxRetries})
			log.Info("generation succeeded",
				zap.Int("attempts", req.Attempt+1),
				zap.Int("code_len", len(code)),
				zap.Duration("duration", time.Since(start)),
			)
			return &models.GenerationResult{
				Code:     code,
				Model:    model,
				Attempts: req.Attempt + 1,
				Duration: time.Since(start),
			}, nil
		}

		ce := failure.Classify(err)
		g.metrics.RecordAttempt(req.ModelName, string(ce.Kind))
		if !ce.Retryable || !req.CanRetry() {
			return nil, g.fail(ctx, log, req, start, ce)
		}

		delay := bo.NextBackOff()
		log.Warn("rate limited, retrying",
			zap.Int("attempt", req.Attempt),
			zap.Int("max_retries", req.MaxRetries),
			zap.Duration("delay", delay),
		)
		g.metrics.RecordRetry()
		notify(ctx, Progress{Stage: StageRetrying, Attempt: req.Attempt, MaxRetries: req.MaxRetries, Delay: delay, Kind: string(ce.Kind)})
		if err := g.sleep(ctx, delay); err != nil {
			return nil, g.fail(ctx, log, req, start, contextError(ctx))
		}
		req = req.NextAttempt()
	}
}

// Prepare validates the input and resolves opts against the defaults. The
// returned request is ready for Run.
func (g *Generator) Prepare(description, credential string, opts models.Options) (models.GenerationRequest, error) {
	desc, err := validate.Description(description)
	if err != nil {
		return models.GenerationRequest{}, err
	}
	key, err := validate.Credential(credential)
	if err != nil {
		return models.GenerationRequest{}, err
	}

	req := models.GenerationRequest{
		Description:     desc,
		Credential:      key,
		Prompt:          BuildPrompt(desc),
		ModelName:       g.defaults.Model,
		Temperature:     models.Temperature,
		MaxOutputTokens: g.defaults.MaxOutputTokens,
		Timeout:         g.defaults.Timeout,
		MaxRetries:      *g.defaults.MaxRetries,
	}
	if opts.MaxRetries != nil {
		if *opts.MaxRetries < 0 {
			return req, failure.Newf(failure.InvalidOptions, "max retries must not be negative, got %d", *opts.MaxRetries)
		}
		req.MaxRetries = *opts.MaxRetries
	}
	switch {
	case opts.Timeout < 0:
		return req, failure.Newf(failure.InvalidOptions, "timeout must be positive, got %s", opts.Timeout)
	case opts.Timeout > 0:
		req.Timeout = opts.Timeout
	}
	switch {
	case opts.MaxOutputTokens < 0:
		return req, failure.Newf(failure.InvalidOptions, "max output tokens must not be negative, got %d", opts.MaxOutputTokens)
	case opts.MaxOutputTokens > 0:
		req.MaxOutputTokens = opts.MaxOutputTokens
	}
	if m := strings.TrimSpace(opts.ModelName); m != "" {
		req.ModelName = m
	}
	return req, nil
}

// attempt runs one dispatch and turns the reply into a document.
func (g *Generator) attempt(ctx context.Context, client llm.Client, req models.GenerationRequest) (string, string, error) {
	c, err := race(ctx, req.Timeout, func(ctx context.Context) (*llm.Completion, error) {
		return client.Complete(ctx, llm.CompletionRequest{
			Prompt:          req.Prompt,
			Model:           req.ModelName,
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		})
	})
	if err != nil {
		return "", "", err
	}
	if c == nil || strings.TrimSpace(c.Text) == "" {
		return "", "", failure.New(failure.MalformedResponse, "Invalid response from AI model: no text content")
	}

	code, err := Normalize(c.Text)
	if err != nil {
		return "", "", err
	}
	model := c.Model
	if model == "" {
		model = req.ModelName
	}
	return code, model, nil
}

func (g *Generator) fail(ctx context.Context, log *zap.Logger, req models.GenerationRequest, start time.Time, e *failure.Error) *failure.Error {
	g.metrics.RecordGeneration(metrics.OutcomeError, time.Since(start))
	notify(ctx, Progress{Stage: StageFailed, Attempt: req.Attempt, MaxRetries: req.MaxRetries, Kind: string(e.Kind)})
	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.Int("attempts", req.Attempt+1),
		zap.Duration("duration", time.Since(start)),
		zap.Error(e),
	}
	if e.Kind == failure.Cancelled {
		log.Info("generation cancelled", fields...)
	} else {
		log.Warn("generation failed", fields...)
	}
	return e
}

// newBackOff yields 1s, 2s, 4s, ... capped at 30s with no jitter.
func newBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxBackoff,
	}
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}

type requestIDKey struct{}

// WithRequestID tags ctx with an id that Generate attaches to its logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id carried by ctx, or a fresh one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
