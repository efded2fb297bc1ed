// Package ingestion implements the ingest path of the pipeline: a
// validation gate enforcing cost and sanity limits, followed by parse,
// chunk, and an atomic idempotent write of the document with its chunks.
//
// Any gate failure short-circuits before expensive work is scheduled and
// records a PARSE_FAILED document row carrying the specific reason, so
// operators can see why an upload was rejected without reading logs.
package ingestion
