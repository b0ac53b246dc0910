/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/styles"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether this host can reset devices",
	Long: `Check the operating system, the loaded kernel driver version and the
CPU architecture against the requirements of a PCIe link reset.

Exits with status 1 when any check fails.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info, err := pcireset.GetHostInfo(sysfsRoot(), pcireset.DefaultProcRoot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting host info: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(styles.TitleStyle.Render("Compatibility"))
		fmt.Println()

		failed := false
		for _, check := range pcireset.CheckCompatibility(info, pcireset.MinimumLinkResetDriver) {
			level := styles.LevelSuccess
			if !check.OK {
				level = styles.LevelError
				failed = true
			}
			fmt.Println("  " + styles.RenderLevel(level, fmt.Sprintf("%-12s %s", check.Name, check.Detail)))
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
