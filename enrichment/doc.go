// Package enrichment drives the resumable half of the pipeline: a batch
// orchestrator invoked periodically, a bounded worker pool for concurrent
// embedding and concept-extraction calls, and retry with exponential
// backoff for transient service errors.
//
// The orchestrator holds no in-memory state between invocations. All
// progress lives in per-chunk status columns, so an interrupted run
// resumes exactly where it stopped: terminal chunks are never selected
// again, undispatched work stays pending, and a run that finds nothing
// pending returns immediately.
package enrichment
