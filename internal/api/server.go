package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/app-builder/internal/brief"
	"github.com/example/app-builder/internal/failure"
	"github.com/example/app-builder/internal/generation"
	"github.com/example/app-builder/internal/metrics"
	"github.com/example/app-builder/internal/models"
	"github.com/example/app-builder/internal/orchestrator"
)

// Generator produces a document for one request.
type Generator interface {
	Generate(ctx context.Context, description, credential string, opts models.Options) (*models.GenerationResult, error)
}

// Server holds the HTTP dependencies. Metrics may be nil.
type Server struct {
	Generator   Generator
	Jobs        *orchestrator.Orchestrator
	Metrics     *metrics.Collector
	Logger      *zap.Logger
	BriefLimits brief.Limits
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(CORS())
	if s.Metrics != nil {
		router.Use(Instrument(s.Metrics))
		router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := router.Group("/api")
	{
		api.POST("/generate", s.generate)

		jobs := api.Group("/jobs")
		{
			jobs.POST("", s.createJob)
			jobs.GET("", s.listJobs)
			jobs.GET("/:id", s.getJob)
			jobs.DELETE("/:id", s.cancelJob)
			jobs.GET("/:id/events", s.streamJob)
		}
	}
	return router
}

type briefUpload struct {
	DataBase64  string `json:"data_base64"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Pages       string `json:"pages"`
}

type generateRequest struct {
	Description     string       `json:"description"`
	APIKey          string       `json:"api_key"`
	Model           string       `json:"model"`
	MaxRetries      *int         `json:"max_retries"`
	TimeoutMs       int64        `json:"timeout_ms"`
	MaxOutputTokens int32        `json:"max_output_tokens"`
	Brief           *briefUpload `json:"brief"`
}

// parse decodes the body and resolves the description and credential.
func (s *Server) parse(c *gin.Context) (string, string, models.Options, error) {
	var req generateRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", "", models.Options{}, failure.Wrap(failure.InvalidOptions, err, "Invalid request body: "+err.Error())
	}

	description := req.Description
	if strings.TrimSpace(description) == "" && req.Brief != nil {
		text, err := s.readBrief(c.Request.Context(), req.Brief)
		if err != nil {
			return "", "", models.Options{}, failure.Wrap(failure.InvalidOptions, err, "Could not read brief: "+err.Error())
		}
		description = text
	}

	credential := req.APIKey
	if credential == "" {
		credential = c.GetHeader("X-Goog-Api-Key")
	}
	if credential == "" {
		credential = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	opts := models.Options{
		MaxRetries:      req.MaxRetries,
		Timeout:         time.Duration(req.TimeoutMs) * time.Millisecond,
		ModelName:       req.Model,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	return description, credential, opts, nil
}

func (s *Server) readBrief(ctx context.Context, up *briefUpload) (string, error) {
	data, err := brief.DecodeBase64(up.DataBase64)
	if err != nil {
		return "", err
	}
	limits := s.BriefLimits
	limits.Pages = up.Pages
	b, err := brief.Extract(ctx, data, up.Filename, up.ContentType, limits)
	if err != nil {
		return "", err
	}
	return b.Text, nil
}

func (s *Server) generate(c *gin.Context) {
	description, credential, opts, err := s.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rid := c.GetString(requestIDKey)
	ctx := generation.WithRequestID(c.Request.Context(), rid)
	res, err := s.Generator.Generate(ctx, description, credential, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id":  rid,
		"code":        res.Code,
		"model":       res.Model,
		"attempts":    res.Attempts,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (s *Server) createJob(c *gin.Context) {
	description, credential, opts, err := s.parse(c)
	if err != nil {
		respondError(c, err)
		return
	}
	job, err := s.Jobs.Submit(description, credential, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", "/api/jobs/"+job.ID)
	c.JSON(http.StatusAccepted, job)
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.Jobs.ListJobs())
}

func (s *Server) getJob(c *gin.Context) {
	job, ok := s.Jobs.GetJob(c.Param("id"))
	if !ok {
		notFound(c, "job not found")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) cancelJob(c *gin.Context) {
	id := c.Param("id")
	if err := s.Jobs.Cancel(id); err != nil {
		notFound(c, err.Error())
		return
	}
	job, _ := s.Jobs.GetJob(id)
	c.JSON(http.StatusAccepted, job)
}

// streamJob sends job events as server-sent events until the job finishes or
// the client goes away.
func (s *Server) streamJob(c *gin.Context) {
	id := c.Param("id")
	events, unsubscribe := s.Jobs.Subscribe(id)
	defer unsubscribe()

	job, ok := s.Jobs.GetJob(id)
	if !ok {
		notFound(c, "job not found")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(orchestrator.EventStatus, job)
	if job.Status.Done() {
		return
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case raw, ok := <-events:
			if !ok {
				return false
			}
			var ev struct {
				Event string `json:"event"`
			}
			if err := json.Unmarshal(raw, &ev); err != nil {
				return true
			}
			c.SSEvent(ev.Event, string(raw))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
