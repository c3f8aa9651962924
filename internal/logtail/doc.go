// Package logtail reads the tail of the homedash log file.
//
// Read returns the last N lines using a ring buffer, so memory stays bounded
// by N regardless of file size. Problems decodes those lines as zap JSON
// entries and keeps the warnings and errors; the dashboard shows them so a
// failing watcher is visible without opening the log.
//
//	entries, err := logtail.Problems(cfg.Log.Path, 400, 5)
package logtail
