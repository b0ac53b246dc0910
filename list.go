package pcireset

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// ListDevices returns the interface indices of the control nodes under
// deviceDir, sorted ascending. Entries that are not character devices or
// not named by a number are skipped.
func ListDevices(deviceDir string) ([]int, error) {
	entries, err := os.ReadDir(deviceDir)
	if err != nil {
		return nil, err
	}

	var ifaces []int
	for _, entry := range entries {
		iface, ok := interfaceIndex(entry.Name())
		if !ok {
			continue
		}
		if isCharacterDevice(filepath.Join(deviceDir, entry.Name())) {
			ifaces = append(ifaces, iface)
		}
	}

	sort.Ints(ifaces)
	return ifaces, nil
}

// interfaceIndex parses a control node name
func interfaceIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	iface, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return iface, true
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
