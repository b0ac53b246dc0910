package pcireset

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a PCI bus-device-function location
type Address struct {
	Domain   uint
	Bus      uint
	Slot     uint
	Function uint
}

func (a Address) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%1x", a.Domain, a.Bus, a.Slot, a.Function)
}

// ParseAddress parses a BDF in the sysfs form DDDD:BB:SS.F
func ParseAddress(bdf string) (Address, error) {
	domain, rest, ok := strings.Cut(bdf, ":")
	if !ok {
		return Address{}, fmt.Errorf("invalid PCI address %q", bdf)
	}
	bus, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return Address{}, fmt.Errorf("invalid PCI address %q", bdf)
	}
	slot, function, ok := strings.Cut(rest, ".")
	if !ok {
		return Address{}, fmt.Errorf("invalid PCI address %q", bdf)
	}

	fields := []struct {
		value string
		width int
		max   uint64
	}{
		{domain, 4, 0xffff},
		{bus, 2, 0xff},
		{slot, 2, 0x1f},
		{function, 1, 0x7},
	}
	var parsed [4]uint
	for i, f := range fields {
		if len(f.value) != f.width {
			return Address{}, fmt.Errorf("invalid PCI address %q", bdf)
		}
		v, err := strconv.ParseUint(f.value, 16, 16)
		if err != nil || v > f.max {
			return Address{}, fmt.Errorf("invalid PCI address %q", bdf)
		}
		parsed[i] = uint(v)
	}

	return Address{
		Domain:   parsed[0],
		Bus:      parsed[1],
		Slot:     parsed[2],
		Function: parsed[3],
	}, nil
}
