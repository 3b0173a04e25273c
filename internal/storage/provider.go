// Package storage defines the data-directory file abstraction used for the
// tree and settings documents.
package storage

// Provider is the interface for document file operations. Names are
// relative to the data directory.
type Provider interface {
	// Read returns the raw bytes of a document. A missing document yields
	// an error wrapping fs.ErrNotExist.
	Read(name string) ([]byte, error)
	// Write atomically replaces a document.
	Write(name string, content []byte) error
	// Exists reports whether a document is present.
	Exists(name string) (bool, error)
	// Rename moves a document within the data directory.
	Rename(oldName, newName string) error
	// Lock takes an exclusive lock on a document, shared with every process
	// using the same data directory. The returned func releases it.
	Lock(name string) (unlock func() error, err error)
	// Root returns the absolute data directory.
	Root() string
}
