package display

import (
	"errors"
	"fmt"

	"github.com/celer/vkgraph/driver"
)

// ErrDeviceLost matches every Error of kind DeviceLost.
var ErrDeviceLost = errors.New("display: device lost")

// ErrorKind classifies an Error.
type ErrorKind int

const (
	// DeviceLost is unrecoverable: the device and display must be rebuilt.
	DeviceLost ErrorKind = iota + 1
	// Driver is a device object creation failure while recording.
	Driver
)

func (k ErrorKind) String() string {
	switch k {
	case DeviceLost:
		return "device lost"
	case Driver:
		return "driver"
	}
	return "unknown"
}

// Error is returned by every failing Display operation.
type Error struct {
	Kind ErrorKind

	// Driver is set when Kind is Driver.
	Driver driver.DriverError

	// Err is the underlying failure.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "display: " + e.Kind.String()
	}
	return fmt.Sprintf("display: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrDeviceLost && e.Kind == DeviceLost
}

func deviceLost(err error) error {
	return &Error{Kind: DeviceLost, Err: err}
}

// classify keeps driver errors recoverable and treats everything else as a
// lost device.
func classify(err error) error {
	var derr driver.DriverError
	if errors.As(err, &derr) {
		return &Error{Kind: Driver, Driver: derr, Err: err}
	}
	return deviceLost(err)
}
