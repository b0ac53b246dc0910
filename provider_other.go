//go:build !linux

package pcireset

import (
	"github.com/go-logr/logr"
)

// SysfsProvider is only functional on Linux
type SysfsProvider struct {
	log logr.Logger
}

func NewSysfsProvider(log logr.Logger, _, _ string) (*SysfsProvider, error) {
	log.V(1).Info("NOT SUPPORTED OS")
	return &SysfsProvider{log: log}, nil
}

func (p *SysfsProvider) ResolveBDF(int) (string, error) {
	return "", ErrUnsupportedPlatform
}

func (p *SysfsProvider) OpenHandle(int) (Device, error) {
	return Device{}, ErrUnsupportedPlatform
}
