package pcireset

import "fmt"

const (
	// DefaultDeviceDir holds one control node per interface index
	DefaultDeviceDir = "/dev/tenstorrent"

	// DefaultSysfsRoot is the sysfs mount point
	DefaultSysfsRoot = "/sys"

	// DefaultProcRoot is the procfs mount point
	DefaultProcRoot = "/proc"

	// driverClass is the sysfs class and module name of the accelerator driver
	driverClass = "tenstorrent"
)

// Device is a handle on an accelerator addressed by interface index
type Device struct {
	Interface int
	BDF       string
	Path      string // Control node

	// PCI identity, zero when sysfs does not expose it
	VendorID uint32
	DeviceID uint32
	Class    uint32

	// Link state in GT/s and lanes, zero when unknown
	CurrentLinkSpeed float64
	CurrentLinkWidth float64
	MaxLinkSpeed     float64
	MaxLinkWidth     float64
}

// LinkString describes the current link, e.g. "16.0 GT/s x16"
func (d Device) LinkString() string {
	if d.CurrentLinkSpeed == 0 && d.CurrentLinkWidth == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.1f GT/s x%d", d.CurrentLinkSpeed, int(d.CurrentLinkWidth))
}

// DeviceProvider resolves interface indices to devices
type DeviceProvider interface {
	// ResolveBDF returns the PCI address of the device behind iface
	ResolveBDF(iface int) (string, error)
	// OpenHandle returns a fresh handle on the device behind iface
	OpenHandle(iface int) (Device, error)
}
