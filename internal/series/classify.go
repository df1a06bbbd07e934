package series

import (
	"errors"
	"strings"

	"github.com/jackzampolin/bookcast/internal/providers"
)

// ErrorCategory groups upstream failures for display.
type ErrorCategory string

const (
	CategoryBusy        ErrorCategory = "busy"
	CategoryRateLimited ErrorCategory = "rate_limited"
	CategoryGeneric     ErrorCategory = "generic"
)

// ClassifyError maps a generation failure to a category by its message:
// "503" or "overwhelmed" means the model is busy, "429" or "quota" means
// the account is rate limited.
func ClassifyError(err error) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}
	if providers.IsRateLimitError(err) {
		return CategoryRateLimited
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "503") || strings.Contains(msg, "overwhelmed"):
		return CategoryBusy
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota"):
		return CategoryRateLimited
	}
	return CategoryGeneric
}

// UserMessage describes err for a notification.
func UserMessage(err error) string {
	switch ClassifyError(err) {
	case CategoryBusy:
		return "The model is busy right now. Try again in a few minutes."
	case CategoryRateLimited:
		return "Rate limit reached. Wait a moment before retrying."
	}
	var perr *providers.ParseError
	if errors.As(err, &perr) {
		return "The model returned a response that could not be read."
	}
	if err == nil {
		return "Generation failed."
	}
	return "Generation failed: " + err.Error()
}
