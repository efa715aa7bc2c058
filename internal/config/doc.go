// Package config loads the optional wled-backup defaults file.
//
// The file is YAML and stored in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/wled-backup/config.yaml or $HOME/.config/wled-backup/config.yaml
//   - macOS: $HOME/.config/wled-backup/config.yaml
//   - Windows: %LOCALAPPDATA%\wled-backup\config.yaml
//
// A different file can be named with --config. Example:
//
//	version: 1
//	output: /var/backups/wled
//	subnets:
//	  - 192.168.1.0/24
//	  - 10.0.20.0/28
//	variant: files
//	timeout: 5s
//	push: true
//
// Values from the file are defaults only. A flag given on the command line
// always wins.
package config
