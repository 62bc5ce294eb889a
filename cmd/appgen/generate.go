package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/app-builder/internal/brief"
	"github.com/example/app-builder/internal/config"
	"github.com/example/app-builder/internal/failure"
	"github.com/example/app-builder/internal/generation"
	"github.com/example/app-builder/internal/logging"
	"github.com/example/app-builder/internal/models"
	"github.com/example/app-builder/internal/providers/llm"
)

var generateFlags struct {
	brief      string
	pages      string
	apiKey     string
	model      string
	maxRetries int
	timeout    time.Duration
	out        string
}

var generateCmd = &cobra.Command{
	Use:   "generate [description]",
	Short: "Generate an HTML app",
	Long: `Generate a single-file HTML app from a description or a brief.

The API key is taken from --api-key, then GOOGLE_API_KEY, then LLM_API_KEY.
Rate-limited calls are retried with exponential backoff. Ctrl-C cancels the
request immediately.

Examples:
  # Print the page to stdout
  appgen generate "a todo list with local storage"

  # Use a PDF brief and write to a file
  appgen generate --brief brief.pdf --pages 1-2 --out app.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&generateFlags.brief, "brief", "", "PDF, HTML or text file describing the app")
	f.StringVar(&generateFlags.pages, "pages", "", "PDF pages to read, e.g. 1-3,5")
	f.StringVarP(&generateFlags.apiKey, "api-key", "k", "", "provider API key")
	f.StringVar(&generateFlags.model, "model", "", "model name (defaults to LLM_MODEL)")
	f.IntVar(&generateFlags.maxRetries, "max-retries", -1, "retries after a rate limit (defaults to GENERATION_MAX_RETRIES)")
	f.DurationVar(&generateFlags.timeout, "timeout", 0, "per-attempt timeout (defaults to GENERATION_TIMEOUT_MS)")
	f.StringVarP(&generateFlags.out, "out", "o", "", "output file (stdout when empty)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Load(envFile)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	description, err := describe(ctx, cfg, args)
	if err != nil {
		return err
	}

	gen := generation.New(llm.NewFactory(cfg.ProviderConfig()),
		generation.WithLogger(logger),
		generation.WithDefaults(cfg.GenerationDefaults()),
	)

	opts := models.Options{
		ModelName: generateFlags.model,
		Timeout:   generateFlags.timeout,
	}
	if generateFlags.maxRetries >= 0 {
		opts.MaxRetries = models.Retries(generateFlags.maxRetries)
	}

	ctx = generation.WithProgress(ctx, func(p generation.Progress) {
		if p.Stage == generation.StageRetrying {
			fmt.Fprintf(cmd.ErrOrStderr(), "rate limited, retrying in %s (attempt %d of %d)\n", p.Delay, p.Attempt+2, p.MaxRetries+1)
		}
	})

	res, err := gen.Generate(ctx, description, credential(), opts)
	if err != nil {
		e := failure.Classify(err)
		if e.Kind == failure.Cancelled {
			return errors.New("cancelled")
		}
		p := failure.Present(e)
		if p.Suggestion != "" {
			return fmt.Errorf("%s: %s\n%s", p.Title, e.Message, p.Suggestion)
		}
		return fmt.Errorf("%s: %s", p.Title, e.Message)
	}

	logger.Debug("generated",
		zap.String("model", res.Model),
		zap.Int("attempts", res.Attempts),
		zap.Duration("duration", res.Duration),
	)

	if generateFlags.out == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Code)
		return err
	}
	if err := os.WriteFile(generateFlags.out, []byte(res.Code+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", generateFlags.out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes, %d attempt(s))\n", generateFlags.out, len(res.Code), res.Attempts)
	return nil
}

// describe joins the positional description with the text of --brief.
func describe(ctx context.Context, cfg *config.Config, args []string) (string, error) {
	var parts []string
	if len(args) == 1 {
		parts = append(parts, args[0])
	}
	if generateFlags.brief != "" {
		b, err := brief.ReadFile(ctx, generateFlags.brief, brief.Limits{
			MaxBytes: cfg.BriefMaxBytes,
			MaxPages: cfg.BriefMaxPages,
			Pages:    generateFlags.pages,
		})
		if err != nil {
			return "", fmt.Errorf("read brief: %w", err)
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func credential() string {
	if generateFlags.apiKey != "" {
		return generateFlags.apiKey
	}
	for _, key := range []string{"GOOGLE_API_KEY", "LLM_API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
