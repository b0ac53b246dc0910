//go:build linux

package pcireset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/prometheus/procfs/sysfs"
)

// SysfsProvider resolves devices through the driver's sysfs class entries
// and fills in PCI identity and link state from /sys/bus/pci/devices.
type SysfsProvider struct {
	log       logr.Logger
	fs        sysfs.FS
	sysfsRoot string
	deviceDir string
}

// Ensure SysfsProvider implements DeviceProvider interface at compile time
var _ DeviceProvider = (*SysfsProvider)(nil)

func NewSysfsProvider(log logr.Logger, sysfsRoot, deviceDir string) (*SysfsProvider, error) {
	fs, err := sysfs.NewFS(sysfsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open sysfs: %w", err)
	}

	return &SysfsProvider{
		log:       log,
		fs:        fs,
		sysfsRoot: sysfsRoot,
		deviceDir: deviceDir,
	}, nil
}

// classDevicePath is the "device" link of the driver class entry, which
// points at the PCI device directory
func (p *SysfsProvider) classDevicePath(iface int) string {
	return filepath.Join(p.sysfsRoot, "class", driverClass, fmt.Sprintf("%s!%d", driverClass, iface), "device")
}

func (p *SysfsProvider) ResolveBDF(iface int) (string, error) {
	link, err := os.Readlink(p.classDevicePath(iface))
	if err != nil {
		return "", fmt.Errorf("interface %d: %w", iface, err)
	}

	addr, err := ParseAddress(filepath.Base(link))
	if err != nil {
		return "", fmt.Errorf("interface %d: %w", iface, err)
	}
	return addr.String(), nil
}

func (p *SysfsProvider) OpenHandle(iface int) (Device, error) {
	bdf, err := p.ResolveBDF(iface)
	if err != nil {
		return Device{}, err
	}

	node := filepath.Join(p.deviceDir, strconv.Itoa(iface))
	if _, err := os.Stat(node); err != nil {
		if os.IsNotExist(err) {
			return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, node)
		}
		return Device{}, err
	}

	device := Device{
		Interface: iface,
		BDF:       bdf,
		Path:      node,
	}
	p.enrich(&device)
	return device, nil
}

// enrich copies PCI identity and link state from sysfs. Failures only cost
// detail, never the handle.
func (p *SysfsProvider) enrich(device *Device) {
	addr, err := ParseAddress(device.BDF)
	if err != nil {
		return
	}

	devices, err := p.fs.PciDevices()
	if err != nil {
		p.log.V(1).Info("Failed to read pci devices", "device", device.BDF, "error", err.Error())
		return
	}

	for _, pci := range devices {
		loc := pci.Location
		if uint(loc.Segment) != addr.Domain || uint(loc.Bus) != addr.Bus ||
			uint(loc.Device) != addr.Slot || uint(loc.Function) != addr.Function {
			continue
		}

		device.VendorID = pci.Vendor
		device.DeviceID = pci.Device
		device.Class = pci.Class
		if pci.CurrentLinkSpeed != nil {
			device.CurrentLinkSpeed = *pci.CurrentLinkSpeed
		}
		if pci.CurrentLinkWidth != nil {
			device.CurrentLinkWidth = *pci.CurrentLinkWidth
		}
		if pci.MaxLinkSpeed != nil {
			device.MaxLinkSpeed = *pci.MaxLinkSpeed
		}
		if pci.MaxLinkWidth != nil {
			device.MaxLinkWidth = *pci.MaxLinkWidth
		}
		p.log.V(1).Info("Found matching pci device", "device", device.BDF, "vendor", pci.Vendor)
		return
	}

	p.log.V(1).Info("Device not listed under bus/pci/devices", "device", device.BDF)
}
