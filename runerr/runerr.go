// Package runerr defines the failures that end a digest run. None of them
// are recovered locally: they travel up to the command and turn into a
// non-zero exit code.
package runerr

import (
	"fmt"
	"strings"
)

// ConfigurationError reports that the credentials required by a delivery mode
// are absent. It is raised before any network call is made.
type ConfigurationError struct {
	Mode    string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: mode %q requires %s", e.Mode, strings.Join(e.Missing, ", "))
}

// DeliveryError reports a non-success response from the messaging endpoint.
// Body is the response body exactly as received.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: status %d: %s", e.StatusCode, e.Body)
}

// TransportError reports a network failure while talking to the feed source
// or the messaging endpoint. Err is the underlying error, untouched.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
