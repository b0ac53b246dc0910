/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/components"
	"github.com/allbin/go-pcireset/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [interface...]",
	Short: "Reset the PCI config space of one or more devices",
	Long: `Reset the PCI configuration space of the given devices.

Every device receives a config write command, the reset pending bit of its
PCI Command register is polled until all devices report completion or the
poll timeout elapses, and every device then receives a restore state
command. Devices that do not complete in time are reported but still
restored.

Interfaces can be given as separate arguments or comma separated. Repeated
interfaces are reset once. Link reset is not supported on Arm hosts.

Examples:
  sudo pcireset reset 0
  sudo pcireset reset 0,1,2,3
  sudo pcireset reset --all --poll-timeout 5s
  sudo pcireset reset 0 1 --tui`,
	Args: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("requires at least one interface or --all")
		}
		if all && len(args) > 0 {
			return errors.New("cannot specify both interfaces and --all")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		useTUI, _ := cmd.Flags().GetBool("tui")
		showTable, _ := cmd.Flags().GetBool("table")

		var ifaces []int
		var err error
		if all {
			ifaces, err = pcireset.ListDevices(deviceDir())
		} else {
			ifaces, err = parseInterfaces(args)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var result *pcireset.Result
		if useTUI {
			result, err = runResetTUI(ifaces)
		} else {
			result, err = runReset(ifaces)
			if result != nil && showTable {
				fmt.Println()
				fmt.Println(components.OutcomeTable(result))
			}
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			switch {
			case errors.Is(err, pcireset.ErrUnsupportedPlatform):
				fmt.Fprintln(os.Stderr, "Reboot the host to reset the devices")
			case errors.Is(err, pcireset.ErrPermissionDenied):
				fmt.Fprintln(os.Stderr, "Run as root or fix the device node permissions")
			case errors.Is(err, pcireset.ErrDriverNotFound), errors.Is(err, pcireset.ErrDriverVersion):
				fmt.Fprintln(os.Stderr, "Install or update the kernel driver, or pass --min-driver-version \"\"")
			}
			os.Exit(1)
		}
		if pending := result.Pending(); len(pending) > 0 {
			fmt.Fprintf(os.Stderr, "%d device(s) did not complete the reset: %v\n", len(pending), pending)
		}
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolP("all", "a", false, "Reset every device under the device directory")
	resetCmd.Flags().Duration("poll-timeout", pcireset.DefaultPollTimeout, "Time to wait for devices to report completion")
	resetCmd.Flags().String("min-driver-version", pcireset.MinimumLinkResetDriver.String(), "Minimum kernel driver version, empty to skip the check")
	resetCmd.Flags().Bool("tui", false, "Show reset progress in an interactive view")
	resetCmd.Flags().BoolP("table", "t", false, "Print a per-device summary table")

	_ = viper.BindPFlag("poll-timeout", resetCmd.Flags().Lookup("poll-timeout"))
	_ = viper.BindPFlag("min-driver-version", resetCmd.Flags().Lookup("min-driver-version"))
}

// parseInterfaces accepts "0 1" as well as "0,1" and mixes of both
func parseInterfaces(args []string) ([]int, error) {
	var ifaces []int
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.Atoi(field)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid interface %q", field)
			}
			ifaces = append(ifaces, n)
		}
	}
	if len(ifaces) == 0 {
		return nil, pcireset.ErrNoDevices
	}
	return ifaces, nil
}

// resetOptions builds library options from the merged configuration
func resetOptions(log logr.Logger, diag pcireset.Diagnostics) []pcireset.Option {
	opts := []pcireset.Option{
		pcireset.WithDeviceDir(deviceDir()),
		pcireset.WithSysfsRoot(sysfsRoot()),
		pcireset.WithPollTimeout(viper.GetDuration("poll-timeout")),
		pcireset.WithLogger(log),
		pcireset.WithDiagnostics(diag),
	}
	if v := viper.GetString("min-driver-version"); v != "" {
		opts = append(opts, pcireset.WithMinimumDriverVersion(v))
	}
	return opts
}

func runReset(ifaces []int) (*pcireset.Result, error) {
	r, err := pcireset.New(resetOptions(newLogger(), consoleDiagnostics{out: os.Stdout})...)
	if err != nil {
		return nil, err
	}
	return r.Reset(ifaces)
}

func runResetTUI(ifaces []int) (*pcireset.Result, error) {
	var r *pcireset.Resetter
	model := models.NewResetModel(ifaces, func() (*pcireset.Result, error) {
		return r.Reset(ifaces)
	})
	p := tea.NewProgram(model)

	log := logr.Discard()
	if verbosity > 0 {
		log = newLogger()
	}

	var err error
	r, err = pcireset.New(resetOptions(log, models.ProgramDiagnostics{Sender: p})...)
	if err != nil {
		return nil, err
	}

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return model.Result()
}
