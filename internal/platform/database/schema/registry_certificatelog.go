package schema

// RegistryCertificateLogTable represents the 'registry.certificate_issuance_logs' table
type RegistryCertificateLogTable struct {
	Table             string
	ID                string
	CertificateType   string
	RecordID          string
	CertificateNumber string
	IssuedTo          string
	AmountPaid        string
	ORNumber          string
	DatePaid          string
	Purpose           string
	IssuedBy          string
	IssuedByKind      string
	CreatedAt         string
	UpdatedAt         string

	// NumberConstraint is the unique constraint on certificate numbers.
	NumberConstraint string
}

// RegistryCertificateLog is the schema definition for registry.certificate_issuance_logs
var RegistryCertificateLog = RegistryCertificateLogTable{
	Table:             "registry.certificate_issuance_logs",
	ID:                "id",
	CertificateType:   "certificate_type",
	RecordID:          "record_id",
	CertificateNumber: "certificate_number",
	IssuedTo:          "issued_to",
	AmountPaid:        "amount_paid",
	ORNumber:          "or_number",
	DatePaid:          "date_paid",
	Purpose:           "purpose",
	IssuedBy:          "issued_by",
	IssuedByKind:      "issued_by_kind",
	CreatedAt:         "created_at",
	UpdatedAt:         "updated_at",
	NumberConstraint:  "certificate_issuance_logs_number_key",
}

// Columns returns all standard column names
func (t RegistryCertificateLogTable) Columns() []string {
	return []string{
		t.ID, t.CertificateType, t.RecordID, t.CertificateNumber, t.IssuedTo, t.AmountPaid,
		t.ORNumber, t.DatePaid, t.Purpose, t.IssuedBy, t.IssuedByKind, t.CreatedAt, t.UpdatedAt,
	}
}
