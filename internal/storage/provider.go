// Package storage writes run output to disk and caches input file metadata.
package storage

// Sink is the interface for persisting run output.
type Sink interface {
	// Write atomically replaces the file at path (relative to the sink root).
	Write(path string, content []byte) error
	// Read returns the raw bytes of the file at path (relative to the sink root).
	Read(path string) ([]byte, error)
}

// Verify *FS satisfies Sink at compile time.
var _ Sink = (*FS)(nil)
