// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package document stores scanned supporting documents and makes them searchable.

An upload carries a record type, the file itself and a label chosen by the
encoder. The label must follow the naming convention

	{record_type}_{identifier}[_{YYYY-MM-DD}].{ext}

and be unique among active documents of the same type. Accepted files are
stored under an opaque name; the label, the record type and, for PDFs, the
extracted page text form the search index of the row.

# Architecture

  - Entities: Document.
  - Labels: [ParseLabel] checks the convention before any file I/O.
  - Text: [Extractor] reads PDFs; failures degrade to label-only search.
  - Files: stored through [FileStore] under "documents/<type>/<uuid>.<ext>".
*/
package document

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/registry"
)

const resource = "Document"

// ErrLabelTaken is returned by [Repository.Create] when another active document
// of the same type already holds the label.
var ErrLabelTaken = errors.New("document: label already in use")

// # Domain Entities

// Document is one scanned file attached to a record type.
type Document struct {
	ID               int64         `json:"id"`
	RecordType       registry.Type `json:"record_type"`
	OriginalFilename string        `json:"original_filename"`
	StoredFilename   string        `json:"-"`
	FilePath         string        `json:"-"`
	ExtractedText    *string       `json:"-"`
	FileSize         int64         `json:"file_size"`
	MimeType         *string       `json:"mime_type"`
	UploadedBy       sec.Principal `json:"-"`
	IsActive         bool          `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	// Presentation fields, filled by the service.
	FileURL           string  `json:"file_url"`
	FileSizeFormatted string  `json:"file_size_formatted"`
	UploadedAt        string  `json:"uploaded_at"`
	UploaderName      string  `json:"uploaded_by"`
	IsImage           bool    `json:"is_image"`
	IsPDF             bool    `json:"is_pdf"`
	Snippet           *string `json:"snippet,omitempty"`
}

// Mime returns the stored content type, or "".
func (d *Document) Mime() string {
	if d.MimeType == nil {
		return ""
	}
	return *d.MimeType
}

// SearchResult is the body of a document search.
type SearchResult struct {
	Results []Document `json:"results"`
	Total   int        `json:"total"`
	Query   string     `json:"query"`
}

// FilenameCheck reports whether a label can be used for a new upload.
type FilenameCheck struct {
	Filename   string        `json:"filename"`
	RecordType registry.Type `json:"record_type"`
	Valid      bool          `json:"valid"`
	Available  bool          `json:"available"`
	Message    string        `json:"message"`
	Existing   *Document     `json:"existing_document,omitempty"`
}

// # Contracts

// Query narrows a search. An empty RecordType searches every type.
type Query struct {
	Term       string
	Folded     string
	RecordType registry.Type
}

// Repository persists document metadata.
type Repository interface {
	// List returns every active document, newest first.
	List(ctx context.Context) ([]Document, error)

	// Get returns an active document.
	Get(ctx context.Context, id int64) (*Document, error)

	Search(ctx context.Context, query Query) ([]Document, error)

	// FindByLabel returns the active document holding a label, or nil.
	FindByLabel(ctx context.Context, recordType registry.Type, label string) (*Document, error)

	Create(ctx context.Context, document *Document) error

	// Deactivate soft-deletes an active document.
	Deactivate(ctx context.Context, id int64) error
}

// FileStore holds document bytes. Implemented by [*storage.Disk].
type FileStore interface {
	Put(ctx context.Context, key string, content io.Reader) (int64, error)
	Open(key string) (*os.File, storage.Entry, error)
	Path(key string) (string, error)
	Delete(key string) error
}

// Extractor pulls the plain text out of a stored PDF.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// # Helpers

func isImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
