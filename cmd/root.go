// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/stratum/internal/config"
	"firestige.xyz/stratum/internal/log"
)

var (
	// Global flags
	configFile string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Stratum - Layered network protocol decoder",
	Long: `Stratum decodes and builds layered network packets from declarative
header definitions. It ships definitions for Ethernet, 802.1Q, IPv4,
UDP, TCP and SCTP, and new protocols plug in through the same registry.

Examples:
  stratum decode --hex 4500001400004000401100007f0000017f000001 --first ipv4
  stratum decode --file capture.pcap --format yaml
  stratum protocols`,
	Version:           "0.1.0",
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(protocolsCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		cfg = config.Defaults()
	} else {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	return log.Configure(cfg.Log.Level, cfg.Log.Format)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
