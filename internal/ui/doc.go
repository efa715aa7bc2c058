// Package ui renders terminal output for the wled-backup tools.
//
// All components are plain render functions that return strings built with
// lipgloss; the commands decide where they go:
//
//   - Header: rounded box naming the run and its parameters
//   - Result: double-bordered summary box (success, partial, failure)
//   - SweepProgress: one self-overwriting progress line on stderr
//
// Printer picks between the styled boxes and plain text depending on
// whether its writer is a terminal. Styled results are printed through a
// run-once Bubble Tea program.
package ui
