package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

var (
	// Transient failures are retried and count against the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Permanent failures are returned at once but still count against the breaker.
	Permanent = ErrorClassification{RecordFailure: true}
	// Ignored failures are on the caller's side.
	Ignored = ErrorClassification{}
)

// Classify builds a classifier around an upstream-specific rule. Cancellation
// and open breakers are decided before the rule runs; when the rule does not
// decide, network errors are Transient and anything else is Permanent.
func Classify(rule func(error) (ErrorClassification, bool)) ErrorClassifier {
	return func(err error) ErrorClassification {
		switch {
		case err == nil:
			return Ignored
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Ignored
		case IsCircuitOpen(err):
			return Transient
		}
		if rule != nil {
			if class, ok := rule(err); ok {
				return class
			}
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return Transient
		}
		return Permanent
	}
}

// ClassifyStatus maps an HTTP status returned by a model API. Client errors
// other than 408 and 429 mean the request itself is wrong.
func ClassifyStatus(code int) ErrorClassification {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return Transient
	default:
		return Ignored
	}
}

// MarkTemporary tags err with domain.ErrTemporary when classify would retry it.
func MarkTemporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classify(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
