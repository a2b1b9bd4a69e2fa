package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/frostdev-ops/merchant-insights/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
	Meta      interface{} `json:"meta,omitempty"`
}

// ErrorResponse represents an enhanced error response with additional context
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Code      int         `json:"code"`
	Timestamp string      `json:"timestamp"`
	Request   RequestInfo `json:"request"`
	Details   interface{} `json:"details,omitempty"`
}

// RequestInfo provides context about the failed request
type RequestInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`
}

// SendSuccess sends a successful response
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SendSuccessWithMeta sends a successful response with metadata
func SendSuccessWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SendError sends an error response with enhanced context
func SendError(c *gin.Context, statusCode int, message string) {
	sendError(c, statusCode, message, nil)
}

// SendAppError renders err with the status carried by an *errors.AppError, or
// 500 for anything else.
func SendAppError(c *gin.Context, err error) {
	SendAppErrorWithDetails(c, err, nil)
}

// SendAppErrorWithDetails is SendAppError with extra detail fields merged in.
func SendAppErrorWithDetails(c *gin.Context, err error, extra map[string]interface{}) {
	status := apperrors.GetStatusCode(err)

	message := apperrors.ErrInternalServer.Message
	details := map[string]interface{}{}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Details != "" {
			details["message"] = appErr.Details
		}
	}
	for k, v := range extra {
		details[k] = v
	}

	if len(details) == 0 {
		sendError(c, status, message, nil)
		return
	}
	sendError(c, status, message, details)
}

func sendError(c *gin.Context, statusCode int, message string, details interface{}) {
	errorResponse := ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      statusCode,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Request: RequestInfo{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.RawQuery,
		},
		Details: details,
	}

	if details == nil {
		switch statusCode {
		case http.StatusNotFound:
			if suggestions := generateNotFoundSuggestions(c.Request.URL.Path); len(suggestions) > 0 {
				errorResponse.Details = map[string]interface{}{
					"suggestions": suggestions,
					"message":     "The requested endpoint does not exist. Check the suggestions below for similar endpoints.",
				}
			}
		case http.StatusMethodNotAllowed:
			errorResponse.Details = map[string]interface{}{
				"message": "The HTTP method is not supported for this endpoint.",
			}
		}
	}

	c.JSON(statusCode, errorResponse)
}

var knownEndpoints = []struct {
	keywords []string
	path     string
}{
	{[]string{"health", "status"}, "/health"},
	{[]string{"overview", "dashboard"}, "/api/v1/stores/:store/overview"},
	{[]string{"analytics", "insight"}, "/api/v1/stores/:store/analytics"},
	{[]string{"report"}, "/api/v1/stores/:store/reports"},
	{[]string{"export", "csv", "report"}, "/api/v1/stores/:store/reports/:type/export"},
	{[]string{"metrics"}, "/metrics"},
}

// generateNotFoundSuggestions provides helpful endpoint suggestions for 404 errors
func generateNotFoundSuggestions(path string) []string {
	pathLower := strings.ToLower(path)

	var suggestions []string
	for _, endpoint := range knownEndpoints {
		for _, keyword := range endpoint.keywords {
			if strings.Contains(pathLower, keyword) {
				suggestions = append(suggestions, endpoint.path)
				break
			}
		}
		if len(suggestions) == 5 {
			break
		}
	}
	return suggestions
}
