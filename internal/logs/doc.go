// Package logs tails the web UI log file for `devbox logs`.
//
// The launch phase truncates the log on every start, so a follower that finds
// the file shorter than its offset starts again from the top instead of
// waiting for bytes that will never arrive.
package logs
