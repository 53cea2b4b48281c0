package operation

import (
	"errors"
	"strings"
)

// ErrMissingParameters matches any *MissingParametersError via errors.Is.
var ErrMissingParameters = errors.New("missing required parameters")

// MissingParametersError is returned before any network activity when a
// required parameter is absent. The request was never sent.
type MissingParametersError struct {
	OperationID string
	Missing     []string
	Required    []string
}

func (e *MissingParametersError) Error() string {
	return "Missing required parameters: " + strings.Join(e.Missing, ", ")
}

// Is lets callers test with errors.Is(err, ErrMissingParameters).
func (e *MissingParametersError) Is(target error) bool {
	return target == ErrMissingParameters
}
