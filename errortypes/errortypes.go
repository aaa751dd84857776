package errortypes

import (
	"errors"
	"fmt"
)

// TrackingFailureReason tags every error delivered to a beacon listener.
const TrackingFailureReason = "tracking failure"

// Timeout should be used to flag that a request did not complete before its deadline.
type Timeout struct {
	Message string
}

func (err *Timeout) Error() string {
	return err.Message
}

func (err *Timeout) Code() int {
	return TimeoutErrorCode
}

func (err *Timeout) Severity() Severity {
	return SeverityFatal
}

// BadInput should be used when returning errors which are caused by bad input.
// It should _not_ be used if the error is a server-side issue (e.g. failed to send the external request).
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

func (err *BadInput) Severity() Severity {
	return SeverityFatal
}

// QueueFull is returned when the request queue has no room left for another request.
type QueueFull struct {
	Message string
}

func (err *QueueFull) Error() string {
	return err.Message
}

func (err *QueueFull) Code() int {
	return QueueFullErrorCode
}

func (err *QueueFull) Severity() Severity {
	return SeverityFatal
}

// TrackingFailure is delivered to beacon listeners when a tracking endpoint could not be hit.
//
// StatusCode is zero when the failure happened before a response was received, in which
// case Cause holds the transport error.
type TrackingFailure struct {
	Reason     string
	Message    string
	URL        string
	StatusCode int
	Cause      error
}

// NewStatusFailure builds the failure reported for a response other than HTTP 200.
func NewStatusFailure(url string, statusCode int) *TrackingFailure {
	return &TrackingFailure{
		Reason:     TrackingFailureReason,
		Message:    fmt.Sprintf("Failed to log tracking request. Response code: %d for url: %s", statusCode, url),
		URL:        url,
		StatusCode: statusCode,
	}
}

// NewTransportFailure builds the failure reported when no response was received.
func NewTransportFailure(url string, cause error) *TrackingFailure {
	return &TrackingFailure{
		Reason:  TrackingFailureReason,
		Message: fmt.Sprintf("Failed to log tracking request. Error: %v for url: %s", cause, url),
		URL:     url,
		Cause:   cause,
	}
}

func (err *TrackingFailure) Error() string {
	return err.Message
}

func (err *TrackingFailure) Unwrap() error {
	return err.Cause
}

func (err *TrackingFailure) Code() int {
	return TrackingFailureErrorCode
}

func (err *TrackingFailure) Severity() Severity {
	return SeverityFatal
}

// IsTimeout reports whether the failure was caused by the request deadline expiring.
func (err *TrackingFailure) IsTimeout() bool {
	var timeout *Timeout
	return errors.As(err.Cause, &timeout)
}
