// Package pcireset resets the PCI configuration space of Tenstorrent
// accelerators through the kernel driver's reset ioctl.
//
// A reset batch runs in stages across every requested device: each device
// receives a config write command, the reset pending bit of its PCI Command
// register is polled through sysfs until every device reports completion or
// the poll timeout elapses, and each device then receives a restore state
// command. Devices are resolved, probed and opened before any command is
// sent, so a missing or inaccessible device leaves the whole batch untouched.
//
// # Basic Usage
//
// Reset two devices with the default configuration:
//
//	r, err := pcireset.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := r.Reset([]int{0, 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, iface := range result.Pending() {
//	    log.Printf("device %d did not complete its reset", iface)
//	}
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	r, err := pcireset.New(
//	    pcireset.WithPollTimeout(5*time.Second),
//	    pcireset.WithMinimumDriverVersion("1.26"),
//	    pcireset.WithLogger(logger),
//	)
//
// # Device Discovery
//
// List the control nodes the driver has created and inspect a device:
//
//	ifaces, err := pcireset.ListDevices(pcireset.DefaultDeviceDir)
//	provider, err := pcireset.NewSysfsProvider(logger, pcireset.DefaultSysfsRoot, pcireset.DefaultDeviceDir)
//	device, err := provider.OpenHandle(ifaces[0])
//	fmt.Println(device.BDF, device.LinkString())
//
// # Raw Commands
//
// Issue a single reset ioctl without polling:
//
//	issuer := pcireset.NewIoctlIssuer(logger, pcireset.DefaultDeviceDir)
//	ok, err := issuer.Issue(0, pcireset.CommandRestoreState)
//
// # Error Handling
//
// The library uses sentinel errors for common failure cases:
//
//	result, err := r.Reset(ifaces)
//	if errors.Is(err, pcireset.ErrUnsupportedPlatform) {
//	    // Arm hosts must be rebooted instead
//	}
//	if errors.Is(err, pcireset.ErrPermissionDenied) {
//	    // Run as root or fix the device node permissions
//	}
//
// Per-device command failures do not abort a batch; they are reported in
// DeviceOutcome.Err.
//
// # Platform Support
//
// Linux only. Link reset is refused on arm and aarch64 hosts.
package pcireset
