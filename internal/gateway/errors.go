package gateway

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the gateway address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an unexpected HTTP status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeApplication indicates the gateway answered with status "error"
	ErrTypeApplication
	// ErrTypeValidation indicates a request rejected before it was sent
	ErrTypeValidation
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeApplication:
		return "Gateway Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every Client operation that fails
type Error struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable message; the gateway's text for application errors
	StatusCode     int                 // HTTP status code (if applicable)
	Endpoint       string              // API path that failed
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Type == ErrTypeApplication {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more specific Error
func ClassifyNetworkError(err error) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{
				Type:           ErrTypeConnectionRefused,
				Message:        "Gateway refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &Error{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *Error {
	classified := ClassifyNetworkError(err)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{
		Type:    ErrTypeNetwork,
		Message: message,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewApplicationError wraps a {"status": "error"} reply.
// An empty message is replaced with a generic one.
func NewApplicationError(message string) *Error {
	if message == "" {
		message = "Gateway reported an error"
	}
	return &Error{
		Type:    ErrTypeApplication,
		Message: message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *Error {
	return &Error{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func asError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a transport failure (timeout, refused, DNS, ...)
func IsNetworkError(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Type == ErrTypeNetwork ||
			gwErr.Type == ErrTypeTimeout ||
			gwErr.Type == ErrTypeConnectionRefused ||
			gwErr.Type == ErrTypeDNS
	}
	return false
}

// IsApplicationError checks if the gateway answered with status "error"
func IsApplicationError(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Type == ErrTypeApplication
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Type == ErrTypeParse
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if gwErr, ok := asError(err); ok {
		return gwErr.Type == ErrTypeValidation
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	gwErr, ok := asError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch gwErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The gateway did not respond in time.",
			"Troubleshooting:",
			"  • Check that the gateway process is running",
			"  • The Modbus device behind it may be slow or offline",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Nothing is listening at the gateway address.",
			"Troubleshooting:",
			"  • Start the gateway (it listens on port 5000 by default)",
			"  • Check the --gateway URL and port",
			"  • Run 'modbusdash scan' to look for gateways on the LAN",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the gateway hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeNetwork:
		switch gwErr.NetworkSubtype {
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			return strings.Join([]string{
				"The gateway host is not reachable.",
				"Troubleshooting:",
				"  • Verify the gateway address is correct",
				"  • Check that you're on the same network as the gateway",
			}, "\n")
		default:
			return "Network communication failed. Check your connection and the gateway URL."
		}

	case ErrTypeHTTP:
		if gwErr.StatusCode == 404 {
			return "The gateway does not know this endpoint. Check that --gateway points at the Modbus gateway."
		}
		return fmt.Sprintf("The gateway returned HTTP error %d. Check its log output.", gwErr.StatusCode)

	case ErrTypeParse:
		return "The gateway's response could not be parsed. Check that --gateway points at the Modbus gateway."

	case ErrTypeApplication:
		return "The gateway rejected the request. Connect to the Modbus device first if you haven't."

	case ErrTypeValidation:
		return "The request values are invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	gwErr, ok := asError(err)
	if !ok {
		return err.Error()
	}

	switch gwErr.Type {
	case ErrTypeTimeout:
		return "Gateway not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Gateway refused connection - is it running?"
	case ErrTypeDNS:
		return "Cannot resolve gateway hostname"
	case ErrTypeNetwork:
		switch gwErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Gateway unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Gateway error (HTTP %d)", gwErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse gateway response"
	default:
		return gwErr.Message
	}
}
