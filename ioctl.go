package pcireset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"unsafe"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"
)

// Issuer sends reset commands to a device's control node
type Issuer interface {
	// Probe verifies the control node can be opened without sending anything.
	Probe(iface int) error
	// Issue sends cmd and reports whether the driver returned success.
	Issue(iface int, cmd ResetCommand) (bool, error)
}

// IoctlIssuer issues reset commands through the driver's character device
// nodes, one node per interface index under a device directory.
type IoctlIssuer struct {
	deviceDir string
	log       logr.Logger
}

// Ensure IoctlIssuer implements Issuer interface at compile time
var _ Issuer = (*IoctlIssuer)(nil)

// NewIoctlIssuer returns an issuer for nodes under deviceDir
func NewIoctlIssuer(log logr.Logger, deviceDir string) *IoctlIssuer {
	return &IoctlIssuer{
		deviceDir: deviceDir,
		log:       log,
	}
}

// NodePath returns the control node path for an interface index
func (i *IoctlIssuer) NodePath(iface int) string {
	return filepath.Join(i.deviceDir, strconv.Itoa(iface))
}

func (i *IoctlIssuer) Probe(iface int) error {
	fd, err := i.open(iface)
	if err != nil {
		return err
	}
	return unix.Close(fd)
}

func (i *IoctlIssuer) Issue(iface int, cmd ResetCommand) (bool, error) {
	fd, err := i.open(iface)
	if err != nil {
		return false, err
	}
	defer unix.Close(fd)

	buf := EncodeResetRequest(cmd)
	if errno := resetIoctl(fd, buf); errno != 0 {
		return false, &DeviceControlError{Interface: iface, Command: cmd, Errno: errno}
	}

	resp, err := DecodeResetResponse(buf)
	if err != nil {
		return false, err
	}

	i.log.V(1).Info("Reset command issued",
		"interface", iface, "command", cmd.String(), "result", resp.Result)
	return resp.OK(), nil
}

// open opens the control node read-write and close-on-exec
func (i *IoctlIssuer) open(iface int) (int, error) {
	path := i.NodePath(iface)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, classifyOpenError(path, err)
	}
	return fd, nil
}

// classifyOpenError maps an open errno onto the package error taxonomy
func classifyOpenError(path string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("%w: %s: %w", ErrDeviceBusy, path, err)
	}
}

// resetIoctl performs the reset ioctl in place on buf
func resetIoctl(fd int, buf []byte) unix.Errno {
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(fd),
		uintptr(resetDeviceIoctl),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	return errno
}
