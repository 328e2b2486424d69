package schema

// RegistryDeathRecordTable represents the 'registry.death_records' table
type RegistryDeathRecordTable struct {
	Table            string
	ID               string
	RegistryNumber   string
	FirstName        string
	MiddleName       string
	LastName         string
	Sex              string
	DateOfDeath      string
	DateOfBirth      string
	PlaceOfDeath     string
	FatherName       string
	MotherMaidenName string
	EncodedBy        string
	EncodedByKind    string
	IsActive         string
	CreatedAt        string
	UpdatedAt        string
}

// RegistryDeathRecord is the schema definition for registry.death_records
var RegistryDeathRecord = RegistryDeathRecordTable{
	Table:            "registry.death_records",
	ID:               "id",
	RegistryNumber:   "registry_number",
	FirstName:        "first_name",
	MiddleName:       "middle_name",
	LastName:         "last_name",
	Sex:              "sex",
	DateOfDeath:      "date_of_death",
	DateOfBirth:      "date_of_birth",
	PlaceOfDeath:     "place_of_death",
	FatherName:       "father_name",
	MotherMaidenName: "mother_maiden_name",
	EncodedBy:        "encoded_by",
	EncodedByKind:    "encoded_by_kind",
	IsActive:         "is_active",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}
