package schema

// RegistryMarriageRecordTable represents the 'registry.marriage_records' table
type RegistryMarriageRecordTable struct {
	Table             string
	ID                string
	RegistryNumber    string
	HusbandFirstName  string
	HusbandMiddleName string
	HusbandLastName   string
	WifeFirstName     string
	WifeMiddleName    string
	WifeLastName      string
	DateOfMarriage    string
	PlaceOfMarriage   string
	EncodedBy         string
	EncodedByKind     string
	IsActive          string
	CreatedAt         string
	UpdatedAt         string
}

// RegistryMarriageRecord is the schema definition for registry.marriage_records
var RegistryMarriageRecord = RegistryMarriageRecordTable{
	Table:             "registry.marriage_records",
	ID:                "id",
	RegistryNumber:    "registry_number",
	HusbandFirstName:  "husband_first_name",
	HusbandMiddleName: "husband_middle_name",
	HusbandLastName:   "husband_last_name",
	WifeFirstName:     "wife_first_name",
	WifeMiddleName:    "wife_middle_name",
	WifeLastName:      "wife_last_name",
	DateOfMarriage:    "date_of_marriage",
	PlaceOfMarriage:   "place_of_marriage",
	EncodedBy:         "encoded_by",
	EncodedByKind:     "encoded_by_kind",
	IsActive:          "is_active",
	CreatedAt:         "created_at",
	UpdatedAt:         "updated_at",
}
