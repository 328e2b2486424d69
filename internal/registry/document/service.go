package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/convert"
	"github.com/taibuivan/civilregistry/pkg/pointer"
	"github.com/taibuivan/civilregistry/pkg/slug"
	"github.com/taibuivan/civilregistry/pkg/uuid"
)

const (
	// CodeDuplicateDocument marks a label collision.
	CodeDuplicateDocument = "DUPLICATE_DOCUMENT"

	uploadedAtLayout = "Jan 02, 2006 15:04"
	filePrefix       = "documents"
)

// Settings carries the deployment values the service needs.
type Settings struct {
	PublicBaseURL string
	MaxSize       int64
	Location      *time.Location
}

type Service struct {
	repo      Repository
	files     FileStore
	extractor Extractor
	uploaders registry.Encoders
	metrics   *metrics.Metrics
	settings  Settings
	logger    *slog.Logger
}

func NewService(repo Repository, files FileStore, extractor Extractor, uploaders registry.Encoders, collectors *metrics.Metrics, settings Settings, logger *slog.Logger) *Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Service{
		repo:      repo,
		files:     files,
		extractor: extractor,
		uploaders: uploaders,
		metrics:   collectors,
		settings:  settings,
		logger:    logger,
	}
}

// # Upload

// Upload is one received file.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UploadInput is the upload form.
type UploadInput struct {
	RecordType       string
	OriginalFilename string
	File             *Upload
}

// Upload checks the label and the file, stores the bytes and indexes the row.
// Nothing is written when the label is malformed or already in use.
func (service *Service) Upload(ctx context.Context, uploader sec.Principal, input UploadInput) (*Document, error) {
	recordType, label, err := service.checkInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := service.repo.FindByLabel(ctx, recordType, input.OriginalFilename)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, labelTaken(recordType, input.OriginalFilename)
	}

	extension := extensionOf(input.File.Filename)
	content, mime, err := sniff(input.File.Content, extension)
	if err != nil {
		return nil, err
	}

	storedName := uuid.Filename(extension)
	key := fmt.Sprintf("%s/%s/%s", filePrefix, recordType, storedName)
	size, err := service.files.Put(ctx, key, io.LimitReader(content, service.settings.MaxSize+1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if size > service.settings.MaxSize {
		service.removeFile(ctx, key)
		return nil, tooLarge(service.settings.MaxSize)
	}

	document := &Document{
		RecordType:       recordType,
		OriginalFilename: input.OriginalFilename,
		StoredFilename:   storedName,
		FilePath:         key,
		FileSize:         size,
		MimeType:         &mime,
		UploadedBy:       uploader,
	}
	document.ExtractedText = pointer.To(SearchableText(label, service.pageText(ctx, key, mime)))

	if err := service.repo.Create(ctx, document); err != nil {
		service.removeFile(ctx, key)
		if errors.Is(err, ErrLabelTaken) {
			return nil, labelTaken(recordType, input.OriginalFilename)
		}
		return nil, err
	}

	service.metrics.IncrementDocuments(string(recordType))
	service.logger.InfoContext(ctx, "document_uploaded",
		slog.Int64("document_id", document.ID),
		slog.String("record_type", string(recordType)),
		slog.String("label", document.OriginalFilename),
		slog.Int64("size", size),
		slog.String("uploaded_by", uploader.String()),
	)

	service.presentOne(ctx, document)
	return document, nil
}

func (service *Service) checkInput(input UploadInput) (registry.Type, Label, error) {
	validator := &validate.Validator{}
	validator.Required(fieldRecordType, input.RecordType).
		OneOf(fieldRecordType, input.RecordType, registry.Values()...).
		Required(fieldLabel, input.OriginalFilename).
		MaxLen(fieldLabel, input.OriginalFilename, maxLabelLength).
		Custom(fieldDocument, input.File == nil, "The document field is required.")
	if err := validator.Err(); err != nil {
		return "", Label{}, err
	}

	if _, ok := contentTypes[extensionOf(input.File.Filename)]; !ok {
		return "", Label{}, validate.RequiredError(fieldDocument, "The document must be a file of type: jpeg, png, jpg, pdf.")
	}
	if input.File.Size > service.settings.MaxSize {
		return "", Label{}, tooLarge(service.settings.MaxSize)
	}

	recordType, _ := registry.ParseType(input.RecordType)
	label, err := ParseLabel(recordType, input.OriginalFilename)
	if err != nil {
		return "", Label{}, err
	}
	if label.Extension != extensionOf(input.File.Filename) {
		return "", Label{}, validate.RequiredError(fieldLabel, "The file name extension must match the uploaded file.")
	}
	return recordType, label, nil
}

// sniff checks the first bytes against the extension and returns a reader over
// the full content.
func sniff(content io.Reader, extension string) (io.Reader, string, error) {
	head := make([]byte, 512)
	read, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", apperr.Internal(err)
	}
	head = head[:read]

	expected := contentTypes[extension]
	if http.DetectContentType(head) != expected {
		return nil, "", validate.RequiredError(fieldDocument, "The document content does not match its file type.")
	}
	return io.MultiReader(bytes.NewReader(head), content), expected, nil
}

// pageText extracts PDF text. Failures are logged and yield "".
func (service *Service) pageText(ctx context.Context, key, mime string) string {
	if mime != "application/pdf" || service.extractor == nil {
		return ""
	}

	path, err := service.files.Path(key)
	if err == nil {
		var text string
		if text, err = service.extractor.Extract(ctx, path); err == nil {
			return text
		}
	}

	service.logger.WarnContext(ctx, "document_text_extraction_failed",
		slog.String("key", key),
		slog.Any("error", err),
	)
	return ""
}

// # Reads

func (service *Service) List(ctx context.Context) ([]Document, error) {
	documents, err := service.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	service.present(ctx, documents, "")
	return documents, nil
}

func (service *Service) Get(ctx context.Context, id int64) (*Document, error) {
	document, err := service.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	service.presentOne(ctx, document)
	return document, nil
}

// SearchInput is the query string of a search. RecordType may be "all".
type SearchInput struct {
	Query      string
	RecordType string
}

// Search matches documents by keyword, or by a "type-id" key such as "birth-12".
func (service *Service) Search(ctx context.Context, input SearchInput) (SearchResult, error) {
	term := strings.TrimSpace(input.Query)
	recordType := strings.ToLower(strings.TrimSpace(input.RecordType))
	if recordType == "" {
		recordType = "all"
	}

	validator := &validate.Validator{}
	validator.OneOf(fieldRecordType, recordType, append(registry.Values(), "all")...)
	if err := validator.Err(); err != nil {
		return SearchResult{}, err
	}

	query := Query{Term: term, Folded: slug.Fold(term)}
	if recordType != "all" {
		query.RecordType = registry.Type(recordType)
	}

	documents, err := service.shorthand(ctx, query)
	if err != nil {
		return SearchResult{}, err
	}
	if documents == nil {
		if documents, err = service.repo.Search(ctx, query); err != nil {
			return SearchResult{}, err
		}
	}

	service.present(ctx, documents, term)
	return SearchResult{Results: documents, Total: len(documents), Query: input.Query}, nil
}

// shorthand resolves a "type-id" key. It returns nil when the term is not one.
func (service *Service) shorthand(ctx context.Context, query Query) ([]Document, error) {
	recordType, id, ok := ParseShorthand(query.Term)
	if !ok || (query.RecordType != "" && query.RecordType != recordType) {
		return nil, nil
	}

	document, err := service.repo.Get(ctx, id)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return []Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	if document.RecordType != recordType {
		return []Document{}, nil
	}
	return []Document{*document}, nil
}

// CheckFilename reports whether a label follows the convention and is free.
func (service *Service) CheckFilename(ctx context.Context, recordTypeValue, filename string) (FilenameCheck, error) {
	validator := &validate.Validator{}
	validator.Required(fieldRecordType, recordTypeValue).
		OneOf(fieldRecordType, recordTypeValue, registry.Values()...).
		Required("filename", filename)
	if err := validator.Err(); err != nil {
		return FilenameCheck{}, err
	}

	recordType, _ := registry.ParseType(recordTypeValue)
	check := FilenameCheck{Filename: filename, RecordType: recordType}

	if _, err := ParseLabel(recordType, filename); err != nil {
		check.Message = apperr.As(err).Fields()[fieldLabel]
		return check, nil
	}
	check.Valid = true

	existing, err := service.repo.FindByLabel(ctx, recordType, filename)
	if err != nil {
		return FilenameCheck{}, err
	}
	if existing != nil {
		service.presentOne(ctx, existing)
		check.Existing = existing
		check.Message = labelTakenMessage(recordType, filename)
		return check, nil
	}

	check.Available = true
	check.Message = "The file name is available."
	return check, nil
}

// Open returns the file of an active document.
func (service *Service) Open(ctx context.Context, id int64) (*Document, *os.File, error) {
	document, err := service.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	file, _, err := service.files.Open(document.FilePath)
	if errors.Is(err, storage.ErrNotFound) {
		service.logger.ErrorContext(ctx, "document_file_missing",
			slog.Int64("document_id", id),
			slog.String("key", document.FilePath),
		)
		return nil, nil, apperr.NotFound("File")
	}
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	return document, file, nil
}

// # Delete

// Delete soft-deletes the document, freeing its label. The stored file is kept
// with the inactive row.
func (service *Service) Delete(ctx context.Context, actor sec.Principal, id int64) error {
	if err := service.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	service.logger.WarnContext(ctx, "document_deleted",
		slog.Int64("document_id", id),
		slog.String("actor", actor.String()),
	)
	return nil
}

// # Helpers

func (service *Service) removeFile(ctx context.Context, key string) {
	if err := service.files.Delete(key); err != nil {
		service.logger.WarnContext(ctx, "document_file_cleanup_failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (service *Service) present(ctx context.Context, documents []Document, term string) {
	principals := make([]sec.Principal, len(documents))
	for index := range documents {
		principals[index] = documents[index].UploadedBy
	}

	resolve := service.uploaders.Resolve(ctx, principals)
	for index := range documents {
		service.decorate(&documents[index], resolve(documents[index].UploadedBy).FullName, term)
	}
}

func (service *Service) presentOne(ctx context.Context, document *Document) {
	service.decorate(document, service.uploaders.Lookup(ctx, document.UploadedBy).FullName, "")
}

func (service *Service) decorate(document *Document, uploader, term string) {
	document.FileURL = fmt.Sprintf("%s/api/document-scanning/file/%d", strings.TrimRight(service.settings.PublicBaseURL, "/"), document.ID)
	document.FileSizeFormatted = convert.FileSize(document.FileSize)
	document.UploadedAt = document.CreatedAt.In(service.settings.Location).Format(uploadedAtLayout)
	document.UploaderName = uploader
	document.IsImage = isImage(document.Mime())
	document.IsPDF = document.Mime() == "application/pdf"

	document.Snippet = nil
	if term != "" && document.ExtractedText != nil {
		if snippet := Snippet(*document.ExtractedText, term, SnippetRadius); snippet != "" {
			document.Snippet = &snippet
		}
	}
}

func labelTakenMessage(recordType registry.Type, label string) string {
	return fmt.Sprintf("A %s document named %q already exists. Rename the file or delete the existing document first.", recordType, label)
}

func labelTaken(recordType registry.Type, label string) error {
	return apperr.ConflictCode(CodeDuplicateDocument, labelTakenMessage(recordType, label))
}

func tooLarge(maxSize int64) error {
	return validate.RequiredError(fieldDocument, fmt.Sprintf("The document may not be greater than %d kilobytes.", maxSize/1024))
}
