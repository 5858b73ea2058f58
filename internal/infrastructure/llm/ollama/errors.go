package ollama

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/agro-knowledge/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx reply from the Ollama API.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama %s: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s: %s: %s", e.Operation, e.Status, e.Body)
}

var classifyError = resilience.Classify(func(err error) (resilience.ErrorClassification, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ClassifyStatus(statusErr.StatusCode), true
	}
	return resilience.ErrorClassification{}, false
})

func statusError(operation string, code int, status string, body []byte) error {
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: code,
		Status:     status,
		Body:       strings.TrimSpace(string(body)),
	}
}
