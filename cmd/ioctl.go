/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/allbin/go-pcireset"
	"github.com/spf13/cobra"
)

// ioctlCmd represents the ioctl command
var ioctlCmd = &cobra.Command{
	Use:   "ioctl <interface>",
	Short: "Send a single reset command to a device",
	Long: `Send one reset ioctl to a device and print the driver's result, without
polling config space or restoring state afterwards.

This is a debugging aid. A config write without a following restore leaves
the device unusable until it is restored or the host reboots.

Commands:
  restore-state   restore the saved config space (alias: restore)
  reset-link      reset the PCIe link (alias: link)
  config-write    trigger the config space reset

Examples:
  sudo pcireset ioctl 0 --command restore-state
  sudo pcireset ioctl 1 -c config-write`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		iface, err := strconv.Atoi(args[0])
		if err != nil || iface < 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid interface %q\n", args[0])
			os.Exit(1)
		}

		name, _ := cmd.Flags().GetString("command")
		command, err := pcireset.ParseResetCommand(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		issuer := pcireset.NewIoctlIssuer(newLogger(), deviceDir())
		fmt.Printf("Sending %s to %s\n", command, issuer.NodePath(iface))

		ok, err := issuer.Issue(iface, command)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			var ctrlErr *pcireset.DeviceControlError
			if errors.As(err, &ctrlErr) {
				fmt.Fprintf(os.Stderr, "errno: %d\n", int(ctrlErr.Errno))
			}
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Driver rejected the command")
			os.Exit(1)
		}
		fmt.Println("Command accepted")
	},
}

func init() {
	rootCmd.AddCommand(ioctlCmd)

	ioctlCmd.Flags().StringP("command", "c", "restore-state", "Reset command: restore-state, reset-link, config-write")
}
