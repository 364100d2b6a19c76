// Package preflight runs the `fuzzymatch doctor` checks: configuration
// validity, encryption key presence and fit, storage root writability,
// free disk space, file descriptor limits and the index catalog.
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg, loadErr)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
