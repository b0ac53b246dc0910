package pcireset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sys/unix"
	"k8s.io/utils/clock"
)

const (
	// CommandRegisterOffset is the config space offset of the low byte of
	// the PCI Command register.
	CommandRegisterOffset = 4

	// ResetPendingBit is the bit of the Command register low byte that
	// stays set while the config space reset is in progress.
	ResetPendingBit = 1

	DefaultPollTimeout  = 2 * time.Second
	DefaultPollInterval = time.Millisecond
)

// ResetBit extracts the reset pending bit from a Command register low byte
func ResetBit(command byte) uint8 {
	return (command >> ResetPendingBit) & 1
}

// ResetBitMap holds the last observed reset bit per interface index.
// 1 means the reset is still pending, 0 means it completed.
type ResetBitMap map[int]uint8

// AllClear reports whether every device has reported completion
func (m ResetBitMap) AllClear() bool {
	for _, bit := range m {
		if bit != 0 {
			return false
		}
	}
	return true
}

// Pending returns the sorted interface indices whose bit is still set
func (m ResetBitMap) Pending() []int {
	var pending []int
	for iface, bit := range m {
		if bit != 0 {
			pending = append(pending, iface)
		}
	}
	sort.Ints(pending)
	return pending
}

// ConfigSpace is a read-only handle on a device's config space
type ConfigSpace interface {
	io.ReaderAt
	io.Closer
}

// ConfigSpaceOpener opens the config space of a device by BDF
type ConfigSpaceOpener interface {
	OpenConfigSpace(bdf string) (ConfigSpace, error)
}

// SysfsConfigSpaceOpener opens <sysfs>/bus/pci/devices/<bdf>/config
type SysfsConfigSpaceOpener struct {
	sysfsRoot string
}

// Ensure SysfsConfigSpaceOpener implements ConfigSpaceOpener interface at compile time
var _ ConfigSpaceOpener = (*SysfsConfigSpaceOpener)(nil)

// NewSysfsConfigSpaceOpener returns an opener rooted at sysfsRoot
func NewSysfsConfigSpaceOpener(sysfsRoot string) *SysfsConfigSpaceOpener {
	return &SysfsConfigSpaceOpener{sysfsRoot: sysfsRoot}
}

// Path returns the config space resource path for a BDF
func (o *SysfsConfigSpaceOpener) Path(bdf string) string {
	return filepath.Join(o.sysfsRoot, "bus", "pci", "devices", bdf, "config")
}

func (o *SysfsConfigSpaceOpener) OpenConfigSpace(bdf string) (ConfigSpace, error) {
	path := o.Path(bdf)
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &configSpaceFile{fd: fd, path: path}, nil
}

// configSpaceFile reads config space with pread so every sample hits the
// device instead of a buffered copy
type configSpaceFile struct {
	fd   int
	path string
}

func (f *configSpaceFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := unix.Pread(f.fd, p, off)
	if err != nil {
		return n, fmt.Errorf("pread %s at %d: %w", f.path, off, err)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *configSpaceFile) Close() error {
	return unix.Close(f.fd)
}

// Poller samples the reset bit of a set of devices until every device
// reports completion or the timeout elapses
type Poller struct {
	Opener   ConfigSpaceOpener
	Clock    clock.Clock
	Interval time.Duration
	Log      logr.Logger
}

// PollSet owns one open config space handle per device for a single batch
type PollSet struct {
	ifaces   []int
	handles  map[int]ConfigSpace
	clock    clock.Clock
	interval time.Duration
	log      logr.Logger
}

// Open opens the config space of every interface. It is all-or-nothing: on
// any failure the handles opened so far are closed and no set is returned.
// Repeated interfaces share one handle and are sampled once per round.
func (p *Poller) Open(ifaces []int, bdfs map[int]string) (*PollSet, error) {
	set := &PollSet{
		ifaces:   Dedup(ifaces),
		handles:  make(map[int]ConfigSpace, len(ifaces)),
		clock:    p.Clock,
		interval: p.Interval,
		log:      p.Log,
	}
	if set.clock == nil {
		set.clock = clock.RealClock{}
	}
	if set.interval <= 0 {
		set.interval = DefaultPollInterval
	}
	if set.log.GetSink() == nil {
		set.log = logr.Discard()
	}

	for _, iface := range set.ifaces {
		bdf, ok := bdfs[iface]
		if !ok {
			set.Close()
			return nil, fmt.Errorf("%w: no BDF for interface %d", ErrConfigSpaceUnavailable, iface)
		}
		handle, err := p.Opener.OpenConfigSpace(bdf)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("%w: interface %d (%s): %w", ErrConfigSpaceUnavailable, iface, bdf, err)
		}
		set.handles[iface] = handle
	}

	return set, nil
}

// Poll samples every handle once per round, overwriting each device's bit
// with the latest value, and returns when all bits are clear or timeout has
// elapsed. A device never sampled successfully stays pending.
func (s *PollSet) Poll(timeout time.Duration) ResetBitMap {
	bits := make(ResetBitMap, len(s.handles))
	for iface := range s.handles {
		bits[iface] = 1
	}

	buf := make([]byte, 1)
	rounds := 0
	start := s.clock.Now()
	for s.clock.Since(start) < timeout {
		for _, iface := range s.ifaces {
			handle, ok := s.handles[iface]
			if !ok {
				continue
			}
			if _, err := handle.ReadAt(buf, CommandRegisterOffset); err != nil {
				s.log.V(1).Info("Config space read failed", "interface", iface, "error", err.Error())
				continue
			}
			bits[iface] = ResetBit(buf[0])
		}
		rounds++

		if bits.AllClear() {
			break
		}
		s.clock.Sleep(s.interval)
	}

	s.log.V(1).Info("Config space polling finished",
		"rounds", rounds, "elapsed", s.clock.Since(start).String(), "pending", bits.Pending())
	return bits
}

// Close releases every handle. It is safe to call more than once.
func (s *PollSet) Close() error {
	var errs []error
	for iface, handle := range s.handles {
		if err := handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close config space of interface %d: %w", iface, err))
		}
		delete(s.handles, iface)
	}
	return errors.Join(errs...)
}

// PollUntilZeroOrTimeout opens the config space of every interface, polls
// the reset bits and releases the handles before returning.
func (p *Poller) PollUntilZeroOrTimeout(ifaces []int, bdfs map[int]string, timeout time.Duration) (ResetBitMap, error) {
	set, err := p.Open(ifaces, bdfs)
	if err != nil {
		return nil, err
	}
	defer set.Close()

	return set.Poll(timeout), nil
}
