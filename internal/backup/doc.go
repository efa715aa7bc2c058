// Package backup implements the per-host discovery and fetch sequence of a
// WLED backup sweep.
//
// For every host, in order:
//
//  1. Inspector fetches /cfg.json. Hosts that do not answer are skipped
//     quietly; hosts that answer with something other than JSON are skipped
//     with a log entry.
//  2. The device identity is its id.name, or its address when the name is
//     missing or still the factory default. The identity names the backup
//     directory, so a device keeps its history when its address changes.
//  3. cfg.json and last_ip are written into the device directory.
//  4. A Fetcher saves the dependent resources: either the presets document
//     (PresetsFetcher) or every regular file the device lists
//     (FileListFetcher). One failing file does not stop the others; failures
//     are collected in the FetchReport.
//  5. The device directory is staged in the output repository.
//
// Hosts are visited strictly one at a time. Committing is left to the
// caller, once for the whole run.
package backup
