package pcireset

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// fakeConfigSpace serves the Command register low byte. next, when set,
// decides the value per read; otherwise value is returned every time.
type fakeConfigSpace struct {
	mu      sync.Mutex
	value   byte
	next    func(read int) byte
	readErr error
	reads   int
	closed  bool
}

func (f *fakeConfigSpace) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("read on closed config space")
	}
	if f.readErr != nil {
		return 0, f.readErr
	}
	if off != CommandRegisterOffset || len(p) != 1 {
		return 0, fmt.Errorf("unexpected read of %d bytes at %d", len(p), off)
	}
	if f.next != nil {
		p[0] = f.next(f.reads)
	} else {
		p[0] = f.value
	}
	f.reads++
	return 1, nil
}

func (f *fakeConfigSpace) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.closed = true
	return nil
}

type fakeOpener struct {
	spaces map[string]*fakeConfigSpace
	fail   map[string]error
	opened []string
}

func (o *fakeOpener) OpenConfigSpace(bdf string) (ConfigSpace, error) {
	if err := o.fail[bdf]; err != nil {
		return nil, err
	}
	space, ok := o.spaces[bdf]
	if !ok {
		return nil, fmt.Errorf("no config space for %s", bdf)
	}
	o.opened = append(o.opened, bdf)
	return space, nil
}

func (o *fakeOpener) allClosed() bool {
	for _, bdf := range o.opened {
		if !o.spaces[bdf].closed {
			return false
		}
	}
	return true
}

type issuedCommand struct {
	iface int
	cmd   ResetCommand
}

type fakeIssuer struct {
	probeErr map[int]error
	issueErr map[int]error
	failing  map[issuedCommand]bool
	probed   []int
	issued   []issuedCommand
}

func (f *fakeIssuer) Probe(iface int) error {
	f.probed = append(f.probed, iface)
	return f.probeErr[iface]
}

func (f *fakeIssuer) Issue(iface int, cmd ResetCommand) (bool, error) {
	call := issuedCommand{iface: iface, cmd: cmd}
	f.issued = append(f.issued, call)
	if err := f.issueErr[iface]; err != nil {
		return false, err
	}
	return !f.failing[call], nil
}

// issuedFor returns the sorted interfaces that received cmd
func (f *fakeIssuer) issuedFor(cmd ResetCommand) []int {
	var ifaces []int
	for _, call := range f.issued {
		if call.cmd == cmd {
			ifaces = append(ifaces, call.iface)
		}
	}
	sort.Ints(ifaces)
	return ifaces
}

type fakeProvider struct {
	bdfs       map[int]string
	resolveErr map[int]error
	resolved   []int
	opened     []int
}

func (p *fakeProvider) ResolveBDF(iface int) (string, error) {
	p.resolved = append(p.resolved, iface)
	if err := p.resolveErr[iface]; err != nil {
		return "", err
	}
	bdf, ok := p.bdfs[iface]
	if !ok {
		return "", fmt.Errorf("interface %d not present", iface)
	}
	return bdf, nil
}

func (p *fakeProvider) OpenHandle(iface int) (Device, error) {
	p.opened = append(p.opened, iface)
	bdf, err := p.ResolveBDF(iface)
	if err != nil {
		return Device{}, err
	}
	return Device{Interface: iface, BDF: bdf, Path: fmt.Sprintf("/dev/tenstorrent/%d", iface)}, nil
}

type diagnosticEntry struct {
	level string
	msg   string
}

type recordingDiagnostics struct {
	entries []diagnosticEntry
}

func (r *recordingDiagnostics) Info(msg string) {
	r.entries = append(r.entries, diagnosticEntry{"info", msg})
}

func (r *recordingDiagnostics) Success(msg string) {
	r.entries = append(r.entries, diagnosticEntry{"success", msg})
}

func (r *recordingDiagnostics) Warning(msg string) {
	r.entries = append(r.entries, diagnosticEntry{"warning", msg})
}

func (r *recordingDiagnostics) count(level string) int {
	n := 0
	for _, e := range r.entries {
		if e.level == level {
			n++
		}
	}
	return n
}
