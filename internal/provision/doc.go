// Package provision implements the setup phase: OS packages, the Python
// dependency tool, dependency sync, app config seeding, and the optional
// secondary setup script.
//
// Every step carries a policy. Tolerated steps log a warning and let the run
// continue, fatal steps abort it, and optional steps are skipped when their
// input is absent but are fatal when they run and fail. Steps after an abort
// are reported as not run so the journal always lists the full plan.
package provision
