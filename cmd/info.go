/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/styles"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [interface]",
	Short: "Display host or device information",
	Long: `Display information about the host, or about one device when an
interface index is given.

Examples:
  pcireset info
  pcireset info 0

For a device this shows its control node, PCI address, vendor and device
IDs and PCIe link as read from sysfs.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			printHostInfo()
			return
		}

		iface, err := strconv.Atoi(args[0])
		if err != nil || iface < 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid interface %q\n", args[0])
			os.Exit(1)
		}

		provider, err := pcireset.NewSysfsProvider(newLogger(), sysfsRoot(), deviceDir())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		device, err := provider.OpenHandle(iface)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting device info: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(styles.TitleStyle.Render(fmt.Sprintf("Device %d", device.Interface)))
		fmt.Println()
		printField("Node", device.Path)
		printField("BDF", device.BDF)
		if device.VendorID != 0 || device.DeviceID != 0 {
			printField("Vendor ID", fmt.Sprintf("0x%04x", device.VendorID))
			printField("Device ID", fmt.Sprintf("0x%04x", device.DeviceID))
			printField("Class", fmt.Sprintf("0x%06x", device.Class))
		}
		printField("Link", device.LinkString())
		if device.MaxLinkSpeed != 0 {
			printField("Max Link", fmt.Sprintf("%.1f GT/s x%d", device.MaxLinkSpeed, int(device.MaxLinkWidth)))
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printHostInfo() {
	info, err := pcireset.GetHostInfo(sysfsRoot(), pcireset.DefaultProcRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting host info: %v\n", err)
		os.Exit(1)
	}

	driver := info.Driver
	if driver == "" {
		driver = "not loaded"
	}

	fmt.Println(styles.TitleStyle.Render("Host Information"))
	fmt.Println()
	printField("OS", info.OS)
	if info.Distro != "" {
		printField("Distro", info.Distro)
	}
	printField("Kernel", info.Kernel)
	printField("Hostname", info.Hostname)
	printField("Platform", info.Platform)
	printField("Driver", driver)
	if info.Memory != 0 {
		printField("Memory", humanize.IBytes(info.Memory))
	}
}

func printField(label, value string) {
	fmt.Println("  " + styles.LabelStyle.Render(label) + styles.ValueStyle.Render(value))
}
