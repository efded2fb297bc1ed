// Package parser extracts per-page text and metadata from raw document
// bytes. PDF and markdown sources are supported; detection prefers magic
// bytes over the file extension.
package parser
