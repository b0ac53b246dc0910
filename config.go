package pcireset

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// Config holds the configuration for a Resetter
type Config struct {
	DeviceDir    string        // Control nodes, one per interface index
	SysfsRoot    string        // sysfs mount point
	PollTimeout  time.Duration // Time budget for the config space poll
	PollInterval time.Duration // Sleep between poll rounds

	// Platform overrides the detected machine architecture when set
	Platform string

	// MinimumDriver, when set, is checked before any device is touched
	MinimumDriver *semver.Version

	Logger      logr.Logger
	Diagnostics Diagnostics

	// Collaborators. Nil values are replaced by the sysfs and ioctl
	// implementations rooted at DeviceDir and SysfsRoot.
	Issuer   Issuer
	Opener   ConfigSpaceOpener
	Provider DeviceProvider
	Clock    clock.Clock
}

// Option is a functional option for configuring a Resetter
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		DeviceDir:    DefaultDeviceDir,
		SysfsRoot:    DefaultSysfsRoot,
		PollTimeout:  DefaultPollTimeout,
		PollInterval: DefaultPollInterval,
		Logger:       logr.Discard(),
	}
}

// WithDeviceDir sets the directory holding the control nodes
func WithDeviceDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return fmt.Errorf("%w: empty device directory", ErrInvalidConfig)
		}
		c.DeviceDir = dir
		return nil
	}
}

// WithSysfsRoot sets the sysfs mount point
func WithSysfsRoot(root string) Option {
	return func(c *Config) error {
		if root == "" {
			return fmt.Errorf("%w: empty sysfs root", ErrInvalidConfig)
		}
		c.SysfsRoot = root
		return nil
	}
}

// WithPollTimeout sets the time budget for config space polling
func WithPollTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: poll timeout must be positive", ErrInvalidConfig)
		}
		c.PollTimeout = timeout
		return nil
	}
}

// WithPollInterval sets the sleep between poll rounds
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 {
			return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
		}
		c.PollInterval = interval
		return nil
	}
}

// WithPlatform overrides machine architecture detection
func WithPlatform(platform string) Option {
	return func(c *Config) error {
		c.Platform = platform
		return nil
	}
}

// WithMinimumDriverVersion requires the loaded driver to be at least
// version, e.g. "1.26"
func WithMinimumDriverVersion(version string) Option {
	return func(c *Config) error {
		v, err := ParseDriverVersion(version)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		c.MinimumDriver = v
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(log logr.Logger) Option {
	return func(c *Config) error {
		c.Logger = log
		return nil
	}
}

// WithDiagnostics sets the progress message sink
func WithDiagnostics(d Diagnostics) Option {
	return func(c *Config) error {
		c.Diagnostics = d
		return nil
	}
}

// WithIssuer replaces the ioctl command issuer
func WithIssuer(issuer Issuer) Option {
	return func(c *Config) error {
		c.Issuer = issuer
		return nil
	}
}

// WithConfigSpaceOpener replaces the sysfs config space opener
func WithConfigSpaceOpener(opener ConfigSpaceOpener) Option {
	return func(c *Config) error {
		c.Opener = opener
		return nil
	}
}

// WithProvider replaces the sysfs device provider
func WithProvider(provider DeviceProvider) Option {
	return func(c *Config) error {
		c.Provider = provider
		return nil
	}
}

// WithClock replaces the poll loop time source, clock.RealClock by default
func WithClock(clk clock.Clock) Option {
	return func(c *Config) error {
		c.Clock = clk
		return nil
	}
}
