package client

import (
	"errors"
	"fmt"
)

// TransportError means no response was received from the service.
type TransportError struct {
	BaseURL string
	Err     error
}

func (e *TransportError) Error() string {
	if e.BaseURL != "" {
		return fmt.Sprintf("analysis service unreachable at %s: %v", e.BaseURL, e.Err)
	}
	return fmt.Sprintf("analysis service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage is deliberately generic; no status code exists.
func (e *TransportError) UserMessage() string {
	return "Could not connect to the analysis service. Check that it is running and reachable."
}

// ServiceError is a non-success HTTP response.
type ServiceError struct {
	StatusCode int
	// Detail is the service-provided message from {"detail": "..."}, if any.
	Detail    string
	RequestID string
}

func (e *ServiceError) Error() string {
	switch {
	case e.Detail != "" && e.RequestID != "":
		return fmt.Sprintf("service error: status=%d request_id=%s detail=%s", e.StatusCode, e.RequestID, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("service error: status=%d detail=%s", e.StatusCode, e.Detail)
	case e.RequestID != "":
		return fmt.Sprintf("service error: status=%d request_id=%s", e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("service error: status=%d", e.StatusCode)
}

func (e *ServiceError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Analysis request failed with HTTP status %d.", e.StatusCode)
}

// MalformedResponseError is a success status with an unusable body.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (status=%d): %v", e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) UserMessage() string {
	return "The analysis service returned an invalid response."
}

// Message collapses any error from this package into the single string shown
// to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var uf interface{ UserMessage() string }
	if errors.As(err, &uf) {
		return uf.UserMessage()
	}
	return err.Error()
}
