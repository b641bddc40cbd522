// Package logging configures log/slog for whosaid.
//
// Diagnostics go to stderr as JSON at the configured level; stdout is left to
// index output and matching lines. With --debug, records are also written to
// a size-rotated file under ~/.whosaid/logs/.
package logging
