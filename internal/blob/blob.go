// Copyright 2026 VaultFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package blob implements the binary store behind the vault metadata.
// Every upload gets its own opaque ref, fanned out over two directory
// levels to keep directories small. The store works against any
// billy.Filesystem: osfs in production, memfs in tests.
package blob

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store writes and reads blobs addressed by opaque refs.
type Store struct {
	fs billy.Filesystem
}

// New returns a Store over the given filesystem.
func New(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// NewOnDisk returns a Store rooted at dir on the local disk.
func NewOnDisk(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return New(osfs.New(dir)), nil
}

// refPath fans a ref out over two directory levels (aa/bb/aabb...).
func refPath(ref string) string {
	return path.Join(ref[:2], ref[2:4], ref)
}

// newRef mints a unique blob ref. Refs are per-upload, never shared
// between entries: deleting one entry's blob must not affect another.
func newRef() string {
	u := uuid.New()
	// Hex without dashes keeps the fan-out prefix uniformly distributed.
	return fmt.Sprintf("%x", u[:])
}

// Put streams r into the store and returns the new ref and byte count.
// The data lands in a temp file first and is renamed into place only once
// fully written, so a partial write never becomes visible.
func (s *Store) Put(r io.Reader) (string, int64, error) {
	tmp, err := util.TempFile(s.fs, "", "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.discard(tmpName)
		return "", 0, fmt.Errorf("failed to write blob: %w", err)
	}

	ref := newRef()
	target := refPath(ref)

	if err := s.fs.MkdirAll(path.Dir(target), 0755); err != nil {
		s.discard(tmpName)
		return "", 0, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		s.discard(tmpName)
		return "", 0, fmt.Errorf("failed to store blob: %w", err)
	}
	return ref, size, nil
}

// Open returns a reader over the blob's content.
func (s *Store) Open(ref string) (io.ReadCloser, error) {
	if err := validRef(ref); err != nil {
		return nil, err
	}
	return s.fs.Open(refPath(ref))
}

// SizeOf returns the stored byte count for ref.
func (s *Store) SizeOf(ref string) (int64, error) {
	if err := validRef(ref); err != nil {
		return 0, err
	}
	info, err := s.fs.Stat(refPath(ref))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Exists reports whether the blob is present.
func (s *Store) Exists(ref string) bool {
	if validRef(ref) != nil {
		return false
	}
	_, err := s.fs.Stat(refPath(ref))
	return err == nil
}

// Delete removes the blob. A missing blob is not an error: deletion is
// best-effort by contract and the caller may be retrying a cleanup.
func (s *Store) Delete(ref string) error {
	if err := validRef(ref); err != nil {
		return err
	}
	err := s.fs.Remove(refPath(ref))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// discard removes a temp file, logging rather than failing on error.
func (s *Store) discard(name string) {
	if err := s.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("temp", name).Warn("failed to remove temp blob")
	}
}

const refLen = 32 // hex-encoded 16-byte ref

func validRef(ref string) error {
	if len(ref) != refLen {
		return fmt.Errorf("malformed blob ref %q", ref)
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("malformed blob ref %q", ref)
		}
	}
	return nil
}
