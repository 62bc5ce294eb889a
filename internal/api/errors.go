package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/app-builder/internal/failure"
)

// statusClientClosedRequest is the nginx convention for a client that went away.
const statusClientClosedRequest = 499

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Kind       string           `json:"kind"`
	Message    string           `json:"message"`
	Retryable  bool             `json:"retryable"`
	Title      string           `json:"title,omitempty"`
	Suggestion string           `json:"suggestion,omitempty"`
	Severity   failure.Severity `json:"severity,omitempty"`
	Actions    []failure.Action `json:"actions,omitempty"`
}

func httpStatus(kind failure.Kind) int {
	switch kind {
	case failure.InvalidCredential:
		return http.StatusUnauthorized
	case failure.AuthenticationFailed:
		return http.StatusForbidden
	case failure.RateLimited, failure.QuotaExceeded:
		return http.StatusTooManyRequests
	case failure.Timeout:
		return http.StatusGatewayTimeout
	case failure.Cancelled:
		return statusClientClosedRequest
	case failure.NetworkError, failure.MalformedResponse, failure.InvalidGeneratedCode:
		return http.StatusBadGateway
	}
	if kind.Category() == failure.CategoryValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError classifies err and writes it with its presentation.
func respondError(c *gin.Context, err error) {
	e := failure.Classify(err)
	p := failure.Present(e)
	_ = c.Error(err)
	c.JSON(httpStatus(e.Kind), gin.H{
		"request_id": c.GetString(requestIDKey),
		"error": errorBody{
			Kind:       string(e.Kind),
			Message:    e.Message,
			Retryable:  e.Retryable,
			Title:      p.Title,
			Suggestion: p.Suggestion,
			Severity:   p.Severity,
			Actions:    p.Actions,
		},
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{
		"request_id": c.GetString(requestIDKey),
		"error":      errorBody{Kind: "NotFound", Message: message},
	})
}
