package schema

// RegistryDocumentRecordTable represents the 'registry.document_records' table
type RegistryDocumentRecordTable struct {
	Table            string
	ID               string
	RecordType       string
	OriginalFilename string
	StoredFilename   string
	FilePath         string
	ExtractedText    string
	FileSize         string
	MimeType         string
	UploadedBy       string
	UploaderKind     string
	IsActive         string
	CreatedAt        string
	UpdatedAt        string
}

// RegistryDocumentRecord is the schema definition for registry.document_records
var RegistryDocumentRecord = RegistryDocumentRecordTable{
	Table:            "registry.document_records",
	ID:               "id",
	RecordType:       "record_type",
	OriginalFilename: "original_filename",
	StoredFilename:   "stored_filename",
	FilePath:         "file_path",
	ExtractedText:    "extracted_text",
	FileSize:         "file_size",
	MimeType:         "mime_type",
	UploadedBy:       "uploaded_by",
	UploaderKind:     "uploader_kind",
	IsActive:         "is_active",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}

// Columns returns all standard column names
func (t RegistryDocumentRecordTable) Columns() []string {
	return []string{
		t.ID, t.RecordType, t.OriginalFilename, t.StoredFilename, t.FilePath, t.ExtractedText,
		t.FileSize, t.MimeType, t.UploadedBy, t.UploaderKind, t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
