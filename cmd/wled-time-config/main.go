// Wled-time-config applies NTP, location and timezone settings to every
// address of a subnet.
//
// Only the settings given on the command line are sent. Addresses that do
// not answer, or answer with an error, are logged and skipped.
//
// Usage:
//
//	wled-time-config SUBNET [--ntp-server HOST] [--lat LAT] [--lon LON] [--time-zone-option-index N]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wledbackup/internal/logging"
	"github.com/muurk/wledbackup/internal/subnet"
	"github.com/muurk/wledbackup/internal/timeconfig"
	"github.com/muurk/wledbackup/internal/ui"
	"github.com/muurk/wledbackup/internal/version"
	"github.com/muurk/wledbackup/internal/wled"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	ntpServer     string
	lat           string
	lon           string
	timeZoneIndex string
	timeout       time.Duration
	port          int
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "wled-time-config SUBNET",
	Short: "Set NTP, location and timezone on WLED devices",
	Long: `Submit the time settings form to every address of SUBNET.

Only the options that are given are changed on the devices. Giving
--time-zone-option-index also enables the custom timezone and resets
the UTC offset.`,
	Example: `  # Set location for a whole subnet
  wled-time-config 192.168.1.0/24 --lat 52.37 --lon 4.90

  # Use a local NTP server and timezone entry 7
  wled-time-config 10.0.20.0/28 --ntp-server ntp.lan --time-zone-option-index 7`,
	Version:      version.Version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runTimeConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("wled-time-config", version.Full())
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)

	f := rootCmd.Flags()
	f.StringVar(&ntpServer, "ntp-server", "", "Enable NTP with this server")
	f.StringVar(&lat, "lat", "", "Latitude, e.g. 52.37")
	f.StringVar(&lon, "lon", "", "Longitude, e.g. 4.90")
	f.StringVar(&timeZoneIndex, "time-zone-option-index", "", "Index into the device's timezone list")
	f.DurationVar(&timeout, "timeout", timeconfig.DefaultTimeout, "Per-host request timeout")
	f.IntVar(&port, "port", wled.DefaultPort, "Device HTTP port")
	f.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, silent (env "+logging.LogLevelEnvVar+")")
}

// settingsFromFlags keeps only the options given on the command line.
func settingsFromFlags(changed func(string) bool) timeconfig.Settings {
	var s timeconfig.Settings
	if changed("ntp-server") {
		s.NTPServer = &ntpServer
	}
	if changed("lat") {
		s.Lat = &lat
	}
	if changed("lon") {
		s.Lon = &lon
	}
	if changed("time-zone-option-index") {
		s.TimeZoneIndex = &timeZoneIndex
	}
	return s
}

func runTimeConfig(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	hosts, err := subnet.Expand(args[0])
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", timeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pusher := timeconfig.NewPusher(settingsFromFlags(cmd.Flags().Changed), logger)
	pusher.Port = port
	pusher.Timeout = timeout
	pusher.UserAgent = version.UserAgent("wled-time-config")

	report := pusher.Push(ctx, hosts)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}

	return ui.NewPrinter(os.Stdout).PrintResult(summarize(args[0], report))
}

// summarize builds the closing result box. Unreachable addresses are
// expected on a sweep and do not make the run fail.
func summarize(cidr string, report *timeconfig.PushReport) *ui.Result {
	typ := ui.ResultSuccess
	if len(report.Applied) == 0 {
		typ = ui.ResultWarning
	}

	return ui.NewResult(typ, "Time settings pushed").
		AddDetail("Subnet", cidr).
		AddDetail("Applied", fmt.Sprintf("%d", len(report.Applied))).
		AddDetail("Failed", fmt.Sprintf("%d", len(report.Failed))).
		AddDetail("Duration", report.Duration.Round(time.Millisecond).String())
}
