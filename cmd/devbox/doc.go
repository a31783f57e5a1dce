// Package main hosts the devbox CLI entrypoint and command graph.
//
// Each container lifecycle hook maps to one subcommand: "devbox setup" runs
// the provisioning phase and "devbox start" launches the web UI. The remaining
// commands inspect and operate the provisioned container: status, logs,
// history, env, stop, restart, and configuration scaffolding.
//
// Keep this package lean: the phases live in internal/provision and
// internal/launch. This package resolves configuration, sets up logging and
// the run journal, and renders results for the terminal.
package main
