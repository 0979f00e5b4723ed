// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/nlyzer/internal/config"
	"firestige.xyz/nlyzer/internal/core/decoder"
	"firestige.xyz/nlyzer/internal/log"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nlyzer",
	Short: "nlyzer - live packet capture, filtering and dissection",
	Long: `nlyzer captures live traffic from a network interface, runs every frame
through a Lua filter and prints the accepted frames layer by layer.

Decoded layers: Ethernet, IPv4, IPv6, TCP, UDP.

Commands:
  scan      capture on one device until interrupted
  devices   list capture devices
  tui       interactive terminal front end
  config    print the effective configuration`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults plus NLYZER_* environment when empty)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the configuration and prepares the process-wide state
// every command depends on.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	decoder.RegisterDefaults()
	return cfg, nil
}

// setup is loadConfig plus logging on stderr.
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}
