package pcireset

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// MinimumLinkResetDriver is the oldest driver that supports the reset ioctl
// commands used here
var MinimumLinkResetDriver = semver.MustParse("1.26.0")

// HostInfo describes the machine the reset runs on
type HostInfo struct {
	OS       string
	Distro   string
	Kernel   string
	Hostname string
	Platform string // Machine architecture, e.g. x86_64
	Driver   string // Empty when the driver is not loaded
	Memory   uint64 // Total RAM in bytes, 0 when unknown
}

// Machine returns the host CPU architecture as reported by uname
func Machine() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uts.Machine[:]), nil
}

// IsResetSupported reports whether PCIe link reset works on a platform.
// Arm hosts do not rescan the bus in a way the reset relies on.
func IsResetSupported(platform string) bool {
	p := strings.ToLower(platform)
	return !strings.HasPrefix(p, "arm") && !strings.HasPrefix(p, "aarch")
}

// GetHostInfo collects host details. sysfsRoot locates the driver module and
// procRoot the memory counters.
func GetHostInfo(sysfsRoot, procRoot string) (HostInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return HostInfo{}, fmt.Errorf("uname: %w", err)
	}

	info := HostInfo{
		OS:       unix.ByteSliceToString(uts.Sysname[:]),
		Kernel:   unix.ByteSliceToString(uts.Release[:]),
		Hostname: unix.ByteSliceToString(uts.Nodename[:]),
		Platform: unix.ByteSliceToString(uts.Machine[:]),
		Distro:   readDistroName("/etc/os-release"),
	}
	if v, err := ReadDriverVersion(sysfsRoot); err == nil {
		info.Driver = v.Original()
	}
	if mem, err := ReadMemTotal(procRoot); err == nil {
		info.Memory = mem
	}
	return info, nil
}

// readDistroName returns PRETTY_NAME from an os-release file
func readDistroName(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok && key == "PRETTY_NAME" {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}

// ParseDriverVersion parses a driver module version such as "1.26",
// "1.29.1", "2.0.0-rc1" or "1.26+git"
func ParseDriverVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid driver version %q: %w", strings.TrimSpace(s), err)
	}
	return v, nil
}

// DriverSupported reports whether v is the same as or newer than minimum. A
// pre-release ranks below its release and build metadata is ignored, so
// 1.26.0-rc1 does not satisfy 1.26 while 1.26+git does.
func DriverSupported(v, minimum *semver.Version) bool {
	return !v.LessThan(minimum)
}

// ReadDriverVersion reads the loaded driver module version from sysfs
func ReadDriverVersion(sysfsRoot string) (*semver.Version, error) {
	path := filepath.Join(sysfsRoot, "module", driverClass, "version")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDriverVersion(string(data))
}

// ReadMemTotal returns the total usable RAM in bytes from procRoot/meminfo
func ReadMemTotal(procRoot string) (uint64, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return 0, err
	}
	meminfo, err := fs.Meminfo()
	if err != nil {
		return 0, fmt.Errorf("failed to read meminfo: %w", err)
	}
	if meminfo.MemTotalBytes == nil {
		return 0, fmt.Errorf("no MemTotal in %s", filepath.Join(procRoot, "meminfo"))
	}
	return *meminfo.MemTotalBytes, nil
}

// CompatibilityCheck is one line of the host compatibility checklist
type CompatibilityCheck struct {
	Name   string
	OK     bool
	Detail string
}

// CheckCompatibility evaluates whether a host can run a link reset
func CheckCompatibility(info HostInfo, minimum *semver.Version) []CompatibilityCheck {
	checks := make([]CompatibilityCheck, 0, 3)

	if info.OS == "Linux" {
		checks = append(checks, CompatibilityCheck{Name: "OS", OK: true, Detail: "Pass"})
	} else {
		checks = append(checks, CompatibilityCheck{Name: "OS", OK: false, Detail: "Linux required"})
	}

	switch v, err := ParseDriverVersion(info.Driver); {
	case info.Driver == "":
		checks = append(checks, CompatibilityCheck{Name: "Driver", OK: false, Detail: "Fail, no driver"})
	case err != nil:
		checks = append(checks, CompatibilityCheck{Name: "Driver", OK: false, Detail: err.Error()})
	case !DriverSupported(v, minimum):
		checks = append(checks, CompatibilityCheck{
			Name:   "Driver",
			OK:     false,
			Detail: fmt.Sprintf("Version %s, %s or newer required", v.Original(), minimum),
		})
	default:
		checks = append(checks, CompatibilityCheck{Name: "Driver", OK: true, Detail: "Pass"})
	}

	if IsResetSupported(info.Platform) {
		checks = append(checks, CompatibilityCheck{Name: "PCIe Reset", OK: true, Detail: "Pass"})
	} else {
		checks = append(checks, CompatibilityCheck{Name: "PCIe Reset", OK: false, Detail: "Not supported on Arm"})
	}

	return checks
}
