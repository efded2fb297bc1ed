// Package sqlite implements storage.Store on SQLite via modernc.org/sqlite.
//
// The schema is a property graph: documents and chunks as node tables,
// concepts as a shared node table deduplicated case-insensitively, and
// typed edge tables (from_source, mentions, covers, related_to) whose
// primary keys make every edge write upsert-on-absence. Migrations are
// embedded and applied on Open, tracked in a schema_version table.
//
// Vectors are stored as little-endian float32 blobs in nullable columns;
// a NULL column means the embedding phase has not completed.
package sqlite
