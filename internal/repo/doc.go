// Package repo records backups in the output git working copy.
//
// Devices are staged one directory at a time while the sweep runs; the run
// ends with a single commit and an optional push. git is invoked through a
// Runner so tests can replace the binary.
//
// Lock guards an output directory against two runs writing to it at once.
package repo
