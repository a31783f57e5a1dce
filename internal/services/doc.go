// Package services defines shared utilities consumed by the setup and launch
// phases.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, phase names, and step names
//     for logging and journaling.
//   - Structured error markers plus the Wrap helper, and ExitCode which maps
//     a marker to the CLI exit status.
//
// Use these helpers when adding new steps so error handling and observability
// stay uniform across phases.
package services
