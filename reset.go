package pcireset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// DeviceOutcome reports what happened to one device during a batch
type DeviceOutcome struct {
	Interface     int
	BDF           string
	ConfigWriteOK bool  // Driver accepted the config write command
	Completed     bool  // Config space reset observed as complete
	RestoreOK     bool  // Driver accepted the restore state command
	Err           error // Command errors, if any; never aborts the batch
}

// Result is the outcome of a reset batch
type Result struct {
	Devices  []Device
	Outcomes []DeviceOutcome
}

// Completed returns the interfaces whose config space reset completed
func (r *Result) Completed() []int {
	var ifaces []int
	for _, o := range r.Outcomes {
		if o.Completed {
			ifaces = append(ifaces, o.Interface)
		}
	}
	return ifaces
}

// Pending returns the interfaces whose config space reset did not complete
// within the poll timeout
func (r *Result) Pending() []int {
	var ifaces []int
	for _, o := range r.Outcomes {
		if !o.Completed {
			ifaces = append(ifaces, o.Interface)
		}
	}
	return ifaces
}

// Resetter runs PCIe reset batches. Batches on one Resetter are serialized.
type Resetter struct {
	mu       sync.Mutex
	config   Config
	log      logr.Logger
	diag     Diagnostics
	issuer   Issuer
	poller   *Poller
	provider DeviceProvider
}

// New creates a Resetter from DefaultConfig and the given options
func New(opts ...Option) (*Resetter, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	log := config.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	r := &Resetter{
		config:   config,
		log:      log,
		diag:     config.Diagnostics,
		issuer:   config.Issuer,
		provider: config.Provider,
	}
	if r.diag == nil {
		r.diag = LogDiagnostics{Log: log}
	}
	if r.issuer == nil {
		r.issuer = NewIoctlIssuer(log.WithName("ioctl"), config.DeviceDir)
	}
	if r.provider == nil {
		provider, err := NewSysfsProvider(log.WithName("sysfs"), config.SysfsRoot, config.DeviceDir)
		if err != nil {
			return nil, err
		}
		r.provider = provider
	}

	opener := config.Opener
	if opener == nil {
		opener = NewSysfsConfigSpaceOpener(config.SysfsRoot)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	r.poller = &Poller{
		Opener:   opener,
		Clock:    clk,
		Interval: config.PollInterval,
		Log:      log.WithName("poll"),
	}

	return r, nil
}

// Dedup removes repeated interface indices, keeping first occurrences in
// input order
func Dedup(ifaces []int) []int {
	seen := make(map[int]struct{}, len(ifaces))
	out := make([]int, 0, len(ifaces))
	for _, iface := range ifaces {
		if _, ok := seen[iface]; ok {
			continue
		}
		seen[iface] = struct{}{}
		out = append(out, iface)
	}
	return out
}

// Reset performs a config space reset of every listed device.
//
// The batch runs in stage barriers: every device is resolved, its control
// node probed and its config space opened before any command is sent, so a
// failure there leaves all devices untouched. Then each device receives a
// config write, the reset bits are polled until all clear or the poll
// timeout elapses, and each device receives a restore state regardless of
// the poll outcome. Command failures after preflight are reported per device
// in the Result and never stop the batch.
func (r *Resetter) Reset(ifaces []int) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPlatform(); err != nil {
		return nil, err
	}
	if err := r.checkDriver(); err != nil {
		return nil, err
	}

	batch := Dedup(ifaces)
	if len(batch) == 0 {
		return nil, ErrNoDevices
	}
	r.diag.Info(fmt.Sprintf("Starting PCI link reset on devices at PCI indices: %s", joinInterfaces(batch)))

	bdfs := make(map[int]string, len(batch))
	for _, iface := range batch {
		bdf, err := r.provider.ResolveBDF(iface)
		if err != nil {
			return nil, fmt.Errorf("%w: interface %d: %w", ErrDeviceResolution, iface, err)
		}
		bdfs[iface] = bdf
	}

	for _, iface := range batch {
		if err := r.issuer.Probe(iface); err != nil {
			return nil, fmt.Errorf("interface %d: %w", iface, err)
		}
	}

	set, err := r.poller.Open(batch, bdfs)
	if err != nil {
		return nil, err
	}
	defer set.Close()

	outcomes := make([]DeviceOutcome, len(batch))
	for i, iface := range batch {
		outcomes[i] = DeviceOutcome{Interface: iface, BDF: bdfs[iface]}
	}

	for i := range outcomes {
		o := &outcomes[i]
		ok, err := r.issuer.Issue(o.Interface, CommandConfigWrite)
		o.ConfigWriteOK = ok
		r.recordCommand(o, CommandConfigWrite, ok, err)
	}

	bits := set.Poll(r.config.PollTimeout)
	if err := set.Close(); err != nil {
		r.log.Error(err, "Failed to release config space handles")
	}

	for i := range outcomes {
		o := &outcomes[i]
		if bits[o.Interface] == 0 {
			o.Completed = true
			r.diag.Success(fmt.Sprintf("Config space reset completed for device %d", o.Interface))
		} else {
			r.diag.Warning(fmt.Sprintf("Config space reset not completed for device %d!", o.Interface))
		}
	}

	for i := range outcomes {
		o := &outcomes[i]
		ok, err := r.issuer.Issue(o.Interface, CommandRestoreState)
		o.RestoreOK = ok
		r.recordCommand(o, CommandRestoreState, ok, err)
	}

	r.diag.Info(fmt.Sprintf("Finishing PCI link reset on devices at PCI indices: %s", joinInterfaces(batch)))

	result := &Result{Outcomes: outcomes}
	for _, iface := range batch {
		device, err := r.provider.OpenHandle(iface)
		if err != nil {
			return result, fmt.Errorf("%w: interface %d: %w", ErrDeviceResolution, iface, err)
		}
		result.Devices = append(result.Devices, device)
	}

	r.log.V(1).Info("Reset batch finished",
		"devices", len(batch), "completed", result.Completed(), "pending", result.Pending())
	return result, nil
}

// checkPlatform rejects hosts where link reset cannot work
func (r *Resetter) checkPlatform() error {
	platform := r.config.Platform
	if platform == "" {
		machine, err := Machine()
		if err != nil {
			return err
		}
		platform = machine
	}
	if !IsResetSupported(platform) {
		return fmt.Errorf("%w: %s, reboot the host to reset the devices", ErrUnsupportedPlatform, platform)
	}
	return nil
}

// checkDriver enforces the configured minimum driver version
func (r *Resetter) checkDriver() error {
	if r.config.MinimumDriver == nil {
		return nil
	}
	v, err := ReadDriverVersion(r.config.SysfsRoot)
	if err != nil {
		return err
	}
	if !DriverSupported(v, r.config.MinimumDriver) {
		return fmt.Errorf("%w: found %s, need %s", ErrDriverVersion, v.Original(), r.config.MinimumDriver)
	}
	return nil
}

// recordCommand folds a command result into the device outcome
func (r *Resetter) recordCommand(o *DeviceOutcome, cmd ResetCommand, ok bool, err error) {
	switch {
	case err != nil:
		o.Err = errors.Join(o.Err, err)
		r.diag.Warning(fmt.Sprintf("Reset command %s failed for device %d: %v", cmd, o.Interface, err))
	case !ok:
		o.Err = errors.Join(o.Err, fmt.Errorf("%w: %s rejected by driver", ErrDeviceControl, cmd))
		r.diag.Warning(fmt.Sprintf("Reset command %s rejected for device %d", cmd, o.Interface))
	default:
		r.log.V(1).Info("Reset command accepted", "interface", o.Interface, "command", cmd.String())
	}
}

func joinInterfaces(ifaces []int) string {
	parts := make([]string, len(ifaces))
	for i, iface := range ifaces {
		parts[i] = strconv.Itoa(iface)
	}
	return strings.Join(parts, ", ")
}
