// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage provides a disk-backed key → bytes store.

Keys are slash-separated relative paths such as "documents/birth/<uuid>.pdf".
Every key is checked with [filepath.IsLocal] before touching the filesystem, so
a caller-controlled key can never escape the root directory.

Writes go to a temporary file in the destination directory and are renamed
into place, so a reader never observes a half-written document or backup.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrInvalidKey is returned for keys that are absolute or climb out of the root.
var ErrInvalidKey = errors.New("storage: invalid key")

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("storage: not found")

// Entry describes one stored object.
type Entry struct {
	Key     string
	Name    string
	Size    int64
	ModTime time.Time
}

// Disk stores objects under a root directory.
type Disk struct {
	root string
}

// NewDisk creates the root directory if needed and returns a store rooted there.
func NewDisk(root string) (*Disk, error) {
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root %q: %w", root, err)
	}
	if err := os.MkdirAll(absolute, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create root %q: %w", absolute, err)
	}
	return &Disk{root: absolute}, nil
}

// Root returns the absolute root directory.
func (disk *Disk) Root() string { return disk.root }

// Path resolves key to an absolute filesystem path.
func (disk *Disk) Path(key string) (string, error) {
	local := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(disk.root, local), nil
}

// Put writes content to key, replacing any existing object, and returns the byte count.
func (disk *Disk) Put(ctx context.Context, key string, content io.Reader) (int64, error) {
	path, err := disk.Path(key)
	if err != nil {
		return 0, err
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return 0, fmt.Errorf("storage: create directory for %q: %w", key, err)
	}

	temporary, err := os.CreateTemp(directory, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("storage: create temp file for %q: %w", key, err)
	}
	defer func() { _ = os.Remove(temporary.Name()) }()

	written, err := io.Copy(temporary, contextReader{ctx: ctx, reader: content})
	if closeErr := temporary.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("storage: write %q: %w", key, err)
	}

	if err := os.Rename(temporary.Name(), path); err != nil {
		return 0, fmt.Errorf("storage: commit %q: %w", key, err)
	}
	return written, nil
}

// Open returns a reader for key along with its metadata. The caller closes it.
func (disk *Disk) Open(key string) (*os.File, Entry, error) {
	path, err := disk.Path(key)
	if err != nil {
		return nil, Entry{}, err
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, Entry{}, fmt.Errorf("storage: open %q: %w", key, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, Entry{}, fmt.Errorf("storage: stat %q: %w", key, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	return file, entryOf(key, info), nil
}

// Stat returns the metadata of key.
func (disk *Disk) Stat(key string) (Entry, error) {
	path, err := disk.Path(key)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("storage: stat %q: %w", key, err)
	}
	return entryOf(key, info), nil
}

// Exists reports whether key holds an object.
func (disk *Disk) Exists(key string) (bool, error) {
	_, err := disk.Stat(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes key. Deleting a missing key is not an error.
func (disk *Disk) Delete(key string) error {
	path, err := disk.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// List returns the regular files directly under prefix ("" for the root),
// newest first. A missing prefix yields an empty list.
func (disk *Disk) List(prefix string) ([]Entry, error) {
	directory := disk.root
	if prefix != "" {
		path, err := disk.Path(prefix)
		if err != nil {
			return nil, err
		}
		directory = path
	}

	items, err := os.ReadDir(directory)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() || item.Name()[0] == '.' {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entryOf(joinKey(prefix, item.Name()), info))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Name > entries[j].Name
		}
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

func entryOf(key string, info fs.FileInfo) Entry {
	return Entry{Key: key, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// contextReader stops a long copy once ctx is cancelled.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
