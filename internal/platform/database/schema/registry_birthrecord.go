package schema

// RegistryBirthRecordTable represents the 'registry.birth_records' table.
//
// Only the columns referenced in filters, joins and ordering are listed here;
// the full column binding lives with the BirthRecord entity.
type RegistryBirthRecordTable struct {
	Table          string
	ID             string
	RegistryNumber string
	FirstName      string
	MiddleName     string
	LastName       string
	Sex            string
	DateOfBirth    string
	PlaceOfBirth   string
	DateRegistered string
	EncodedBy      string
	EncodedByKind  string
	IsActive       string
	CreatedAt      string
	UpdatedAt      string
}

// RegistryBirthRecord is the schema definition for registry.birth_records
var RegistryBirthRecord = RegistryBirthRecordTable{
	Table:          "registry.birth_records",
	ID:             "id",
	RegistryNumber: "registry_number",
	FirstName:      "child_first_name",
	MiddleName:     "child_middle_name",
	LastName:       "child_last_name",
	Sex:            "sex",
	DateOfBirth:    "date_of_birth",
	PlaceOfBirth:   "place_of_birth",
	DateRegistered: "date_registered",
	EncodedBy:      "encoded_by",
	EncodedByKind:  "encoded_by_kind",
	IsActive:       "is_active",
	CreatedAt:      "created_at",
	UpdatedAt:      "updated_at",
}

// RegistryParentsInformationTable represents the 'registry.parents_information' table
type RegistryParentsInformationTable struct {
	Table         string
	ID            string
	BirthRecordID string
	ParentType    string
	CreatedAt     string
	UpdatedAt     string
}

var RegistryParentsInformation = RegistryParentsInformationTable{
	Table:         "registry.parents_information",
	ID:            "id",
	BirthRecordID: "birth_record_id",
	ParentType:    "parent_type",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
}

// RegistryParentsMarriageTable represents the 'registry.parents_marriages' table
type RegistryParentsMarriageTable struct {
	Table         string
	ID            string
	BirthRecordID string
	UpdatedAt     string
}

var RegistryParentsMarriage = RegistryParentsMarriageTable{
	Table:         "registry.parents_marriages",
	ID:            "id",
	BirthRecordID: "birth_record_id",
	UpdatedAt:     "updated_at",
}

// RegistryBirthAttendantTable represents the 'registry.birth_attendants' table
type RegistryBirthAttendantTable struct {
	Table         string
	ID            string
	BirthRecordID string
	UpdatedAt     string
}

var RegistryBirthAttendant = RegistryBirthAttendantTable{
	Table:         "registry.birth_attendants",
	ID:            "id",
	BirthRecordID: "birth_record_id",
	UpdatedAt:     "updated_at",
}

// RegistryInformantTable represents the 'registry.informants' table
type RegistryInformantTable struct {
	Table         string
	ID            string
	BirthRecordID string
	UpdatedAt     string
}

var RegistryInformant = RegistryInformantTable{
	Table:         "registry.informants",
	ID:            "id",
	BirthRecordID: "birth_record_id",
	UpdatedAt:     "updated_at",
}
