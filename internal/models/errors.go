package models

// ErrorCode is the closed distribution error taxonomy. Task error columns
// only ever carry the first three values; insufficient_credits and
// plan_required are reserved for the billing layer upstream of this engine.
type ErrorCode string

const (
	ErrCodePlatformNotConnected      ErrorCode = "platform_not_connected"
	ErrCodePlatformAPIDenied         ErrorCode = "platform_api_denied"
	ErrCodeAssistantFallbackRequired ErrorCode = "assistant_fallback_required"
	ErrCodeInsufficientCredits       ErrorCode = "insufficient_credits"
	ErrCodePlanRequired              ErrorCode = "plan_required"

	// Boundary-only kinds, never stored on a task row.
	ErrCodeContentNotFound ErrorCode = "content_not_found"
	ErrCodeJobNotFound     ErrorCode = "job_not_found"
)

var distributionErrorCodes = map[ErrorCode]struct{}{
	ErrCodePlatformNotConnected:      {},
	ErrCodePlatformAPIDenied:         {},
	ErrCodeAssistantFallbackRequired: {},
	ErrCodeInsufficientCredits:       {},
	ErrCodePlanRequired:              {},
}

// IsDistributionErrorCode reports whether value belongs to the closed
// taxonomy of publishable error codes.
func IsDistributionErrorCode(value string) bool {
	_, ok := distributionErrorCodes[ErrorCode(value)]
	return ok
}
