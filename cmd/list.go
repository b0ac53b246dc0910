/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/components"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List Tenstorrent devices",
	Long: `List the devices the kernel driver has created control nodes for.

By default only the interface indices are printed. With --table each device
is resolved to its PCI address and shown with its vendor and device IDs and
its current and maximum link.`,
	Run: func(cmd *cobra.Command, args []string) {
		ifaces, err := pcireset.ListDevices(deviceDir())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing devices: %v\n", err)
			os.Exit(1)
		}

		if len(ifaces) == 0 {
			fmt.Println("No devices found")
			return
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if !tableFormat {
			for _, iface := range ifaces {
				fmt.Println(iface)
			}
			return
		}

		provider, err := pcireset.NewSysfsProvider(newLogger(), sysfsRoot(), deviceDir())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		devices := make([]pcireset.Device, 0, len(ifaces))
		for _, iface := range ifaces {
			device, err := provider.OpenHandle(iface)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skipping interface %d: %v\n", iface, err)
				continue
			}
			devices = append(devices, device)
		}

		fmt.Printf("Found %d device(s):\n\n", len(devices))
		fmt.Println(components.DeviceTable(devices))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}
