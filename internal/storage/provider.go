// Package storage defines the file-system abstraction for source notes and
// the generated site.
package storage

import "github.com/starford/symark/internal/models"

// Provider is the interface for file operations relative to a root directory.
type Provider interface {
	// List returns metadata for every file with extension ext under dir.
	// An empty ext matches every file.
	List(dir, ext string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
