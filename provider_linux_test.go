//go:build linux

package pcireset

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-logr/logr"
)

func writeFakePCIDevice(t *testing.T, sysRoot, id string, vals map[string]string) {
	t.Helper()

	parent := "pci0000:00"
	devDir := filepath.Join(sysRoot, "devices", parent, id)
	if err := os.MkdirAll(devDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", devDir, err)
	}

	for f, val := range vals {
		path := filepath.Join(devDir, f)
		if err := os.WriteFile(path, []byte(val+"\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	busDevicesDir := filepath.Join(sysRoot, "bus", "pci", "devices")
	if err := os.MkdirAll(busDevicesDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", busDevicesDir, err)
	}
	target := filepath.Join("..", "..", "..", "devices", parent, id)
	if err := os.Symlink(target, filepath.Join(busDevicesDir, id)); err != nil {
		t.Fatalf("symlink %s: %v", id, err)
	}
}

func writeFakeClassEntry(t *testing.T, sysRoot string, iface int, target string) {
	t.Helper()

	entry := filepath.Join(sysRoot, "class", driverClass, driverClass+"!"+strconv.Itoa(iface))
	if err := os.MkdirAll(entry, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", entry, err)
	}
	if err := os.Symlink(target, filepath.Join(entry, "device")); err != nil {
		t.Fatalf("symlink device: %v", err)
	}
}

func writeFakeNode(t *testing.T, deviceDir string, iface int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(deviceDir, strconv.Itoa(iface)), nil, 0o644); err != nil {
		t.Fatalf("write node: %v", err)
	}
}

var acceleratorVals = map[string]string{
	"class":              "0x120000",
	"vendor":             "0x1e52",
	"device":             "0xb140",
	"subsystem_vendor":   "0x1e52",
	"subsystem_device":   "0x0040",
	"revision":           "0x00",
	"current_link_speed": "16.0 GT/s PCIe",
	"current_link_width": "16",
	"max_link_speed":     "32.0 GT/s PCIe",
	"max_link_width":     "16",
}

func TestSysfsProviderResolveBDF(t *testing.T) {
	sysRoot := t.TempDir()
	writeFakePCIDevice(t, sysRoot, "0000:01:00.0", acceleratorVals)
	writeFakeClassEntry(t, sysRoot, 0, "../../../devices/pci0000:00/0000:01:00.0")
	writeFakeClassEntry(t, sysRoot, 1, "../../../devices/pci0000:00/garbage")

	provider, err := NewSysfsProvider(logr.Discard(), sysRoot, t.TempDir())
	if err != nil {
		t.Fatalf("NewSysfsProvider() error = %v", err)
	}

	bdf, err := provider.ResolveBDF(0)
	if err != nil {
		t.Fatalf("ResolveBDF(0) error = %v", err)
	}
	if bdf != "0000:01:00.0" {
		t.Errorf("ResolveBDF(0) = %q, expected %q", bdf, "0000:01:00.0")
	}

	if _, err := provider.ResolveBDF(1); err == nil {
		t.Error("ResolveBDF(1) accepted a link that is not a PCI address")
	}
	if _, err := provider.ResolveBDF(2); err == nil {
		t.Error("ResolveBDF(2) succeeded for a missing class entry")
	}
}

func TestSysfsProviderOpenHandle(t *testing.T) {
	sysRoot := t.TempDir()
	deviceDir := t.TempDir()
	writeFakePCIDevice(t, sysRoot, "0000:01:00.0", acceleratorVals)
	writeFakeClassEntry(t, sysRoot, 0, "../../../devices/pci0000:00/0000:01:00.0")
	writeFakeNode(t, deviceDir, 0)

	provider, err := NewSysfsProvider(logr.Discard(), sysRoot, deviceDir)
	if err != nil {
		t.Fatalf("NewSysfsProvider() error = %v", err)
	}

	device, err := provider.OpenHandle(0)
	if err != nil {
		t.Fatalf("OpenHandle(0) error = %v", err)
	}

	if device.Interface != 0 || device.BDF != "0000:01:00.0" {
		t.Errorf("device = %+v", device)
	}
	if device.Path != filepath.Join(deviceDir, "0") {
		t.Errorf("Path = %q", device.Path)
	}
	if device.VendorID != 0x1e52 || device.DeviceID != 0xb140 || device.Class != 0x120000 {
		t.Errorf("identity = %#x:%#x class %#x", device.VendorID, device.DeviceID, device.Class)
	}
	if device.CurrentLinkSpeed != 16.0 || device.CurrentLinkWidth != 16 {
		t.Errorf("link = %v x%v", device.CurrentLinkSpeed, device.CurrentLinkWidth)
	}
	if device.MaxLinkSpeed != 32.0 {
		t.Errorf("max link speed = %v", device.MaxLinkSpeed)
	}
	if got := device.LinkString(); got != "16.0 GT/s x16" {
		t.Errorf("LinkString() = %q", got)
	}
}

func TestSysfsProviderOpenHandleMissingNode(t *testing.T) {
	sysRoot := t.TempDir()
	writeFakePCIDevice(t, sysRoot, "0000:01:00.0", acceleratorVals)
	writeFakeClassEntry(t, sysRoot, 0, "../../../devices/pci0000:00/0000:01:00.0")

	provider, err := NewSysfsProvider(logr.Discard(), sysRoot, t.TempDir())
	if err != nil {
		t.Fatalf("NewSysfsProvider() error = %v", err)
	}

	if _, err := provider.OpenHandle(0); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("OpenHandle(0) error = %v, expected ErrDeviceNotFound", err)
	}
}

func TestSysfsProviderWithoutPCITree(t *testing.T) {
	// No bus/pci/devices at all: the handle is still usable, only the PCI
	// identity is missing.
	sysRoot := t.TempDir()
	deviceDir := t.TempDir()
	writeFakeClassEntry(t, sysRoot, 3, "../../../devices/pci0000:00/0000:05:00.0")
	writeFakeNode(t, deviceDir, 3)

	provider, err := NewSysfsProvider(logr.Discard(), sysRoot, deviceDir)
	if err != nil {
		t.Fatalf("NewSysfsProvider() error = %v", err)
	}

	device, err := provider.OpenHandle(3)
	if err != nil {
		t.Fatalf("OpenHandle(3) error = %v", err)
	}
	if device.BDF != "0000:05:00.0" || device.VendorID != 0 {
		t.Errorf("device = %+v", device)
	}
	if got := device.LinkString(); got != "unknown" {
		t.Errorf("LinkString() = %q, expected unknown", got)
	}
}

func TestNewSysfsProviderMissingRoot(t *testing.T) {
	if _, err := NewSysfsProvider(logr.Discard(), filepath.Join(t.TempDir(), "nope"), "/dev/null"); err == nil {
		t.Error("expected error for missing sysfs root")
	}
}
