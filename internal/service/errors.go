package service

import (
	"errors"
	"net/http"

	"github.com/ipgongchang/fanout/internal/models"
)

// DistributionError carries a taxonomy code, the HTTP status the boundary
// should answer with, and optional structured details.
type DistributionError struct {
	Code    models.ErrorCode
	Status  int
	Message string
	Details map[string]interface{}
}

func (e *DistributionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func newDistributionError(code models.ErrorCode, status int, message string) *DistributionError {
	return &DistributionError{
		Code:    code,
		Status:  status,
		Message: message,
	}
}

func (e *DistributionError) withDetails(details map[string]interface{}) *DistributionError {
	e.Details = details
	return e
}

// NormalizeDistributionError coerces any error into a DistributionError.
// Unknown failures become platform_api_denied with a 500 status, matching
// how persistence errors have always surfaced from this engine.
func NormalizeDistributionError(err error) *DistributionError {
	var derr *DistributionError
	if errors.As(err, &derr) {
		return derr
	}

	message := "distribution_failed"
	if err != nil {
		message = err.Error()
	}
	return &DistributionError{
		Code:    models.ErrCodePlatformAPIDenied,
		Status:  http.StatusInternalServerError,
		Message: message,
	}
}
