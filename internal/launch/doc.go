// Package launch implements the launch phase: it starts the web UI as a
// detached process with its output redirected to the log file, waits out the
// liveness window, and checks once whether the process survived.
//
// A server that dies during the window is an observation, not an error: Start
// returns a nil error with Outcome.Alive unset and the caller prints a pointer
// to the log file. The server runs in its own session so it outlives the CLI
// and ignores terminal signals sent to devbox.
//
// The PID file under the state directory lets later invocations (status,
// stop, restart, and a repeated start) find the running server.
package launch
