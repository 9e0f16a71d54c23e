// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
)

// Result is a native driver status code. The values are those of VkResult.
type Result int32

// Known status codes.
const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	EventSet                  Result = 3
	EventReset                Result = 4
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorSurfaceLost          Result = -1000000000
	ErrorNativeWindowInUse    Result = -1000000001
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
	ErrorIncompatibleDisplay  Result = -1000003001
	ErrorValidationFailed     Result = -1000011001
)

// String returns the failure category of the code.
// Codes not listed above are reported as "unknown".
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case NotReady:
		return "not ready"
	case Timeout:
		return "timeout"
	case EventSet:
		return "event_set"
	case EventReset:
		return "event_reset"
	case Incomplete:
		return "incomplete"
	case ErrorOutOfHostMemory:
		return "out of host memory"
	case ErrorOutOfDeviceMemory:
		return "out of device memory"
	case ErrorInitializationFailed:
		return "initialization failed"
	case ErrorDeviceLost:
		return "device lost"
	case ErrorMemoryMapFailed:
		return "memory map failed"
	case ErrorLayerNotPresent:
		return "layer not present"
	case ErrorExtensionNotPresent:
		return "extension not present"
	case ErrorFeatureNotPresent:
		return "feature not present"
	case ErrorIncompatibleDriver:
		return "incompatible driver"
	case ErrorTooManyObjects:
		return "too many objects"
	case ErrorFormatNotSupported:
		return "format not supported"
	case ErrorSurfaceLost:
		return "surface lost (KHR)"
	case ErrorNativeWindowInUse:
		return "native window in use (KHR)"
	case Suboptimal:
		return "suboptimal (KHR)"
	case ErrorOutOfDate:
		return "out of date (KHR)"
	case ErrorIncompatibleDisplay:
		return "incompatible display (KHR)"
	case ErrorValidationFailed:
		return "validation failed (EXT)"
	default:
		return "unknown"
	}
}

// Error implements error, so a Result can be matched with errors.Is.
func (r Result) Error() string {
	return r.String()
}

// Known reports whether the code belongs to one of the classified categories.
func (r Result) Known() bool {
	return r.String() != "unknown"
}

// Error is a non-success status returned by a driver call.
type Error struct {
	Op     string
	Result Result
}

func (e *Error) Error() string {
	if e.Result.Known() {
		return e.Op + ": " + e.Result.String()
	}
	return fmt.Sprintf("%s: unknown (%d)", e.Op, int32(e.Result))
}

// Unwrap returns the status code.
func (e *Error) Unwrap() error {
	return e.Result
}

// check returns nil for Success and an *Error otherwise.
func check(op string, r Result) error {
	if r == Success {
		return nil
	}
	return &Error{Op: op, Result: r}
}

// LoadError means the driver library could not be loaded or lacks
// the global entry point.
type LoadError struct {
	Library string
	Symbol  string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("driver library %s: symbol %s: %s", e.Library, e.Symbol, e.Err)
	}
	return fmt.Sprintf("driver library %s: %s", e.Library, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CapacityError means the driver reported more physical devices than the
// configured enumeration capacity.
type CapacityError struct {
	Limit    int
	Reported int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("vkEnumeratePhysicalDevices: %d devices reported, capacity is %d", e.Reported, e.Limit)
}

// MismatchError means the fill phase of a two-phase query did not
// produce the number of elements announced by the count phase.
type MismatchError struct {
	Op      string
	Device  Handle
	Counted uint32
	Filled  uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: device %#x announced %d elements, filled %d", e.Op, uintptr(e.Device), e.Counted, e.Filled)
}

// package errors
var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNullInstance   = errors.New("driver returned a null instance")
	ErrNullHandle     = errors.New("null handle")
	ErrDestroyed      = errors.New("backend already destroyed")
	ErrNoDevice       = errors.New("no suitable physical device")
)
