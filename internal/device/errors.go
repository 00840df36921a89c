package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/g6audio/g6ctl/internal/hidio"
)

// Error types for device communication operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNotFound indicates no G6 was enumerated on the USB bus
	ErrTypeNotFound ErrorType = iota
	// ErrTypeConnectFailed indicates the connect resync could not complete
	ErrTypeConnectFailed
	// ErrTypeDisconnected indicates an operation was attempted without a session
	ErrTypeDisconnected
	// ErrTypeWrite indicates a HID write failure
	ErrTypeWrite
	// ErrTypeTimeout indicates the device did not answer a read in time
	ErrTypeTimeout
	// ErrTypeUnconfirmed indicates a write whose echo never surfaced during
	// the drain; the value was applied optimistically
	ErrTypeUnconfirmed
	// ErrTypeInvalidArgument indicates a caller-supplied value out of range
	ErrTypeInvalidArgument
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNotFound:
		return "Device Not Found"
	case ErrTypeConnectFailed:
		return "Connect Failed"
	case ErrTypeDisconnected:
		return "Disconnected"
	case ErrTypeWrite:
		return "Write Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeUnconfirmed:
		return "Unconfirmed Write"
	case ErrTypeInvalidArgument:
		return "Invalid Argument"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error from a device operation
type DeviceError struct {
	Type      ErrorType // Category of error
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the operation can be retried
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a device-not-found error
func NewNotFoundError(err error) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeNotFound,
		Message:   "no Sound Blaster X G6 found on the USB bus",
		Err:       err,
		Retryable: true,
	}
}

// NewConnectFailedError creates a connect failure error
func NewConnectFailedError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeConnectFailed,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewDisconnectedError creates an error for operations without a session
func NewDisconnectedError(operation string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeDisconnected,
		Message:   fmt.Sprintf("%s requires a connected device", operation),
		Retryable: false,
	}
}

// NewWriteError creates a write failure error. Device removal mid-write is
// classified as Disconnected rather than a write failure.
func NewWriteError(message string, err error) *DeviceError {
	if errors.Is(err, hidio.ErrDeviceGone) {
		return &DeviceError{
			Type:      ErrTypeDisconnected,
			Message:   "device removed",
			Err:       err,
			Retryable: false,
		}
	}
	return &DeviceError{
		Type:      ErrTypeWrite,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewTimeoutError creates a read timeout error
func NewTimeoutError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeTimeout,
		Message:   message,
		Retryable: true,
	}
}

// NewUnconfirmedError creates an unconfirmed-write warning. The state store
// already holds the optimistic value when this is returned.
func NewUnconfirmedError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeUnconfirmed,
		Message:   message,
		Retryable: false,
	}
}

// NewInvalidArgumentError creates an invalid-argument error
func NewInvalidArgumentError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeInvalidArgument,
		Message:   message,
		Retryable: false,
	}
}

// IsNotFound checks if an error is a device-not-found error
func IsNotFound(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeNotFound
	}
	return false
}

// IsConnectFailed checks if an error is a connect failure
func IsConnectFailed(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeConnectFailed
	}
	return false
}

// IsDisconnected checks if an error indicates no usable session
func IsDisconnected(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeDisconnected
	}
	return false
}

// IsTimeout checks if an error is a read timeout
func IsTimeout(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeTimeout
	}
	return false
}

// IsUnconfirmed checks if an error is an unconfirmed-write warning. Callers
// that treat the optimistic value as good enough can ignore these.
func IsUnconfirmed(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeUnconfirmed
	}
	return false
}

// IsInvalidArgument checks if an error is an invalid-argument error
func IsInvalidArgument(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeInvalidArgument
	}
	return false
}

// IsRetryable checks if an operation should be retried
func IsRetryable(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeNotFound:
		return strings.Join([]string{
			"No Sound Blaster X G6 was found.",
			"Troubleshooting:",
			"  • Check the USB cable is connected",
			"  • On Linux, verify udev permissions for hidraw devices",
			"  • Try a different USB port (prefer a direct port over a hub)",
		}, "\n")

	case ErrTypeConnectFailed:
		return strings.Join([]string{
			"The device was found but did not answer the initial state reads.",
			"Troubleshooting:",
			"  • Close other software that talks to the G6 (Sound Blaster Connect)",
			"  • Unplug and replug the device",
			"  • Power-cycle the device if it has external power",
		}, "\n")

	case ErrTypeDisconnected:
		return "The device session is closed. Reconnect before issuing commands."

	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • The device may be busy flushing buffered responses; retry",
			"  • Unplug and replug the device if timeouts persist",
		}, "\n")

	case ErrTypeUnconfirmed:
		return strings.Join([]string{
			"The write was sent but the device never echoed the new value.",
			"The setting was applied optimistically and is usually in effect.",
			"Re-run the status command to verify the device state.",
		}, "\n")

	case ErrTypeInvalidArgument:
		return "The supplied value is invalid. Check the error message for the accepted range."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeNotFound:
		return "G6 not found - check USB connection"
	case ErrTypeConnectFailed:
		return "Device not responding - is another tool using it?"
	case ErrTypeDisconnected:
		return "Device disconnected"
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeUnconfirmed:
		return "Setting sent but not confirmed by device"
	case ErrTypeInvalidArgument:
		return devErr.Message
	default:
		return devErr.Message
	}
}
