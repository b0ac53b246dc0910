package pcireset

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("device control node not found")
	ErrPermissionDenied = errors.New("permission denied accessing device control node")
	ErrDeviceBusy       = errors.New("device control node unavailable")
	ErrDeviceControl    = errors.New("device control call failed")

	ErrConfigSpaceUnavailable = errors.New("PCI config space unavailable")
	ErrDeviceResolution       = errors.New("failed to resolve device")
	ErrUnsupportedPlatform    = errors.New("PCIe link reset not supported on this platform")
	ErrNoDevices              = errors.New("no devices to reset")

	// Driver errors
	ErrDriverNotFound = errors.New("kernel driver not detected")
	ErrDriverVersion  = errors.New("kernel driver version too old")

	ErrShortBuffer    = errors.New("reset command buffer too short")
	ErrInvalidConfig  = errors.New("invalid reset configuration")
	ErrUnknownCommand = errors.New("unknown reset command")
)

// DeviceControlError carries the OS error code of a failed reset ioctl.
// It matches ErrDeviceControl with errors.Is and unwraps to the errno.
type DeviceControlError struct {
	Interface int
	Command   ResetCommand
	Errno     unix.Errno
}

func (e *DeviceControlError) Error() string {
	return fmt.Sprintf("reset ioctl %s on interface %d: %v", e.Command, e.Interface, e.Errno)
}

func (e *DeviceControlError) Unwrap() error {
	return e.Errno
}

func (e *DeviceControlError) Is(target error) bool {
	return target == ErrDeviceControl
}
