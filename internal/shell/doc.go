// Package shell runs external commands on behalf of the setup phase.
//
// Output from stdout and stderr is merged and only the last few lines are
// retained, which keeps package manager noise out of the console while still
// surfacing the lines that explain a failure.
package shell
