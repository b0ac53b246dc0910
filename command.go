package pcireset

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ResetCommand selects the operation the driver performs on a reset ioctl.
// The value is sent verbatim in the request flags field.
type ResetCommand uint32

const (
	CommandRestoreState  ResetCommand = iota // Restore saved config space and re-enable the device
	CommandResetPCIeLink                     // Retrain the PCIe link
	CommandConfigWrite                       // Trigger reset through a config space write
)

func (c ResetCommand) String() string {
	switch c {
	case CommandRestoreState:
		return "restore-state"
	case CommandResetPCIeLink:
		return "reset-link"
	case CommandConfigWrite:
		return "config-write"
	default:
		return fmt.Sprintf("command(%d)", uint32(c))
	}
}

// ParseResetCommand converts a command name as printed by String.
func ParseResetCommand(name string) (ResetCommand, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "restore-state", "restore":
		return CommandRestoreState, nil
	case "reset-link", "link":
		return CommandResetPCIeLink, nil
	case "config-write":
		return CommandConfigWrite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// Reset ioctl wire format. The driver expects an input pair followed by an
// output pair, all native (little-endian) uint32:
//
//	in:  output_size_bytes, flags
//	out: output_size_bytes, result
//
// The driver fills the output pair in place; result 0 means success.
const (
	resetIoctlMagic  = 0xFA
	resetIoctlNumber = 6

	// resetDeviceIoctl is the request code for the device reset ioctl.
	resetDeviceIoctl = resetIoctlMagic<<8 | resetIoctlNumber

	resetRequestInSize  = 8
	resetRequestOutSize = 8
	resetRequestSize    = resetRequestInSize + resetRequestOutSize
)

// ResetResponse is the output half of a reset ioctl buffer.
type ResetResponse struct {
	OutputSize uint32
	Result     uint32
}

// OK reports whether the driver accepted the command.
func (r ResetResponse) OK() bool {
	return r.Result == 0
}

// EncodeResetRequest builds the buffer passed to the reset ioctl. The output
// pair is zeroed.
func EncodeResetRequest(cmd ResetCommand) []byte {
	buf := make([]byte, resetRequestSize)
	binary.LittleEndian.PutUint32(buf[0:4], resetRequestOutSize)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(cmd))
	return buf
}

// DecodeResetResponse extracts the output pair from a buffer the driver has
// written to.
func DecodeResetResponse(buf []byte) (ResetResponse, error) {
	if len(buf) < resetRequestSize {
		return ResetResponse{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortBuffer, len(buf), resetRequestSize)
	}
	out := buf[resetRequestInSize:]
	return ResetResponse{
		OutputSize: binary.LittleEndian.Uint32(out[0:4]),
		Result:     binary.LittleEndian.Uint32(out[4:8]),
	}, nil
}
