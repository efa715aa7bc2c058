// Wled-backup saves the configuration of every WLED device on one or more
// subnets into a git working copy.
//
// Each device gets a directory named after its configured name (or its
// address when it has none), holding cfg.json, last_ip and either its
// presets or a mirror of its whole filesystem. The run ends with a single
// commit and, with --push, a push.
//
// Usage:
//
//	wled-backup [subnets...] --output DIR [flags]
//
// See 'wled-backup --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wledbackup/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wled-backup [subnets...]",
	Short: "Back up WLED devices into a git repository",
	Long: `Sweep one or more subnets for WLED devices and save their configuration
into a git working copy.

Every address of each subnet is asked for /cfg.json. Devices that answer get
a directory named after their configured name; devices still called "WLED"
are stored under their address instead. All saved directories are staged
and committed once at the end of the run.

Subnets may also come from the config file, and --mdns adds devices that
announce themselves on the local network.`,
	Example: `  # Back up a home network
  wled-backup 192.168.1.0/24 --output /srv/wled-backup

  # Two subnets, presets only, and push the commit
  wled-backup 192.168.1.0/24 10.0.20.0/28 --output /srv/wled-backup --variant presets --push

  # Only devices found via mDNS, with their live state
  wled-backup --mdns --state --output /srv/wled-backup`,
	Version:      version.Version,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runBackup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("wled-backup", version.Full())
	},
}
