/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allbin/go-pcireset"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbosity int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pcireset",
	Short: "Reset Tenstorrent accelerators over PCIe",
	Long: `Reset the PCI configuration space of Tenstorrent accelerators without
rebooting the host.

Devices are addressed by interface index, the number of their control node
under /dev/tenstorrent. Settings are read from flags, PCIRESET_* environment
variables and $XDG_CONFIG_HOME/pcireset/config.yaml, in that order.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/pcireset/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().String("device-dir", pcireset.DefaultDeviceDir, "Directory of device control nodes")
	rootCmd.PersistentFlags().String("sysfs-root", pcireset.DefaultSysfsRoot, "sysfs mount point")

	_ = viper.BindPFlag("device-dir", rootCmd.PersistentFlags().Lookup("device-dir"))
	_ = viper.BindPFlag("sysfs-root", rootCmd.PersistentFlags().Lookup("sysfs-root"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, "pcireset"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PCIRESET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
	}
}

// newLogger returns a stderr logger honoring -v
func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func deviceDir() string {
	return viper.GetString("device-dir")
}

func sysfsRoot() string {
	return viper.GetString("sysfs-root")
}
