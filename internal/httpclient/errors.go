package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// HTTPError is returned when the service answers with a 4xx status, or a
// retryable status once retries are exhausted. The request was sent.
type HTTPError struct {
	OperationID string
	StatusCode  int
	StatusText  string
	Message     string
	Body        []byte
	Headers     http.Header
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.StatusText
	}
	return fmt.Sprintf("%s: %d %s", e.OperationID, e.StatusCode, msg)
}

// TransportError is returned when no response was received.
type TransportError struct {
	OperationID   string
	URL           string
	Attempts      int
	CorrelationID string
	Err           error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request to %s failed after %d attempt(s): %v", e.OperationID, e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CorrelationID returns the correlation ID of a completed exchange: the one
// the executor reported sending, then the caller's header, then an upstream
// echo.
func CorrelationID(req operation.RequestDescriptor, meta *operation.ResponseMeta, err error) string {
	if meta != nil && meta.CorrelationID != "" {
		return meta.CorrelationID
	}
	var te *TransportError
	if errors.As(err, &te) && te.CorrelationID != "" {
		return te.CorrelationID
	}
	if id := operation.HeaderValue(req.Headers, CorrelationHeader); id != "" {
		return id
	}
	if meta != nil && meta.Headers != nil {
		return meta.Headers.Get(CorrelationHeader)
	}
	return ""
}

// errorMessage pulls a human-readable message out of the service's error
// body shapes, falling back to the trimmed body itself.
func errorMessage(body []byte) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Error        any    `json:"error"`
		Message      string `json:"message"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case len(parsed.Errors) > 0 && parsed.Errors[0].Message != "":
			return parsed.Errors[0].Message
		case parsed.ErrorMessage != "":
			return parsed.ErrorMessage
		case parsed.Message != "":
			return parsed.Message
		}
		if s, ok := parsed.Error.(string); ok && s != "" {
			return s
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}
