package ercx

import (
	"errors"
	"fmt"
)

// ErrReportNotFound means ERCx has no report for the query yet. It is an
// expected outcome, not a failure.
var ErrReportNotFound = errors.New("report not found")

// ServiceError is returned when ERCx answers with an unexpected status or a
// payload that cannot be decoded.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ercx %s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ercx %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err carries a *ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}
