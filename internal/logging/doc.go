// Package logging builds the structured zap logger used by the wled-backup
// and wled-time-config commands.
//
// There is no package-level logger. Each command creates one logger at
// startup and hands it to the components it constructs:
//
//	logger, err := logging.New(logLevel)
//	if err != nil {
//	    return err
//	}
//	defer logging.Sync(logger)
//
//	inspector := backup.NewInspector(outputDir, logger)
//
// # Log Levels
//
//   - Debug: per-host config requests, unreachable hosts, git command output
//   - Info: devices found, files written, commits
//   - Warn: devices without a proper name, failed file fetches
//   - Error: git failures, lock contention
//
// # Configuration
//
// The level comes from the --log-level flag, then the WLED_BACKUP_LOG_LEVEL
// environment variable, then defaults to "info". "silent" disables output.
// Logs go to stderr in console format so stdout stays free for the summary.
package logging
