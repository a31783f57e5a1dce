// Package preflight provides readiness checks for the provisioned container:
// filesystem access, system dependencies, the web UI process and its health
// endpoint, and the app config file.
//
// The CLI "devbox status" command calls RunAll and renders the results. The
// individual checks are exported so callers can render sections separately.
package preflight
