// Package archive stores original ingested files content-addressed by
// BLAKE2b-256, so re-ingesting the same bytes is detected before any
// extraction work happens.
package archive

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Archive is a content-addressed file store. Files live under
// root/<hash[:2]>/<hash>.pdf so one directory never grows unbounded.
type Archive struct {
	root string
}

// New creates the archive directory if needed and returns a handle to it.
func New(root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Archive{root: root}, nil
}

// Root returns the archive's base directory.
func (a *Archive) Root() string { return a.root }

// HashBytes returns the hex BLAKE2b-256 digest of data. This is the file
// hash used everywhere a document records its source bytes.
func HashBytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns where a file with the given hash lives (whether or not it
// exists yet).
func (a *Archive) Path(hash string) string {
	shard := "00"
	if len(hash) >= 2 {
		shard = hash[:2]
	}
	return filepath.Join(a.root, shard, hash+".pdf")
}

// Has reports whether a file with the given hash is archived.
func (a *Archive) Has(hash string) bool {
	info, err := os.Stat(a.Path(hash))
	return err == nil && !info.IsDir()
}

// Store archives data and returns its hash. existed reports whether the
// same bytes were already archived. Writes go through a temp file and
// rename so a crash never leaves a partial archive entry.
func (a *Archive) Store(data []byte) (hash string, existed bool, err error) {
	hash = HashBytes(data)
	dest := a.Path(hash)

	if a.Has(hash) {
		return hash, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", false, fmt.Errorf("creating archive shard: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".archive-*")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", false, fmt.Errorf("writing archive entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("closing archive entry: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("committing archive entry: %w", err)
	}
	return hash, false, nil
}

// Read returns the archived bytes for a hash.
func (a *Archive) Read(hash string) ([]byte, error) {
	data, err := os.ReadFile(a.Path(hash))
	if err != nil {
		return nil, fmt.Errorf("reading archive entry %s: %w", hash, err)
	}
	return data, nil
}

// Delete removes an archived file. Deleting a missing entry is not an
// error.
func (a *Archive) Delete(hash string) error {
	err := os.Remove(a.Path(hash))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting archive entry %s: %w", hash, err)
	}
	return nil
}
