package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
)

// SourceError is returned by gateway calls that did not produce a usable envelope.
type SourceError struct {
	Path       string                 `json:"path"`
	StatusCode int                    `json:"status_code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: %d %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Path, e.Message)
}

var (
	ErrStoreNotFound = &SourceError{StatusCode: http.StatusNotFound, Message: "store not found"}
	ErrUnsuccessful  = &SourceError{Message: "upstream reported failure"}
)

// ErrorInfoFrom converts any gateway error into the outcome error shape.
func ErrorInfoFrom(err error) *insights.ErrorInfo {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return &insights.ErrorInfo{
			Message:    se.Message,
			StatusCode: se.StatusCode,
			Details:    se.Details,
		}
	}
	return &insights.ErrorInfo{Message: err.Error()}
}
