package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ClassifyStatus maps an HTTP status code and provider message to a sentinel.
// Unknown statuses produce an unwrapped error carrying the code.
func ClassifyStatus(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusTooManyRequests:
		if isQuotaMessage(msg) {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
	case http.StatusUnauthorized:
		// ElevenLabs reports an exhausted character budget as 401.
		if isQuotaMessage(msg) {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusForbidden:
		// Gemini answers 403 for invalid keys, ElevenLabs for exhausted characters.
		if isQuotaMessage(msg) {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		if strings.Contains(strings.ToLower(msg), "api key") {
			return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
		}
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrServer)
	default:
		return fmt.Errorf("HTTP %d: %s", status, msg)
	}
}

// ClassifyTransport maps errors raised before a status code was seen.
// Context deadline becomes ErrTimeout; cancellation is passed through untouched.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", ErrTimeout)
	}
	return err
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrRateLimit), errors.Is(err, ErrTimeout), errors.Is(err, ErrServer):
		return true
	default:
		return false
	}
}

func isQuotaMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "quota") || strings.Contains(m, "billing")
}
