// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package birth manages certificates of live birth.

A birth registration is one aggregate: the [Record] itself plus its mother and
father, the attendant, the informant and, when the parents are married, a
[ParentsMarriage]. The aggregate is written in a single transaction; a failure
in any child row leaves nothing behind.

Core Responsibility:

  - Registration: validation, duplicate detection and registry numbering (BR-2024-00001).
  - Maintenance: full-form updates with upsert-or-remove of the parents' marriage.
  - Retrieval: listings, quick search and counters for the dashboard.
*/
package birth

import (
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/dedupe"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

// # Domain Enums

const (
	SexMale   = "Male"
	SexFemale = "Female"

	ParentMother = "Mother"
	ParentFather = "Father"

	LegitimacyLegitimate   = "Legitimate"
	LegitimacyIllegitimate = "Illegitimate"

	// DefaultCountry is used for parents and marriage places left blank.
	DefaultCountry = "Philippines"
)

var (
	Sexes              = []string{SexMale, SexFemale}
	BirthTypes         = []string{"Single", "Twin", "Triplet", "Quadruplet", "Other"}
	MultipleBirthOrder = []string{"First", "Second", "Third", "Fourth", "Fifth"}
	AttendantTypes     = []string{"Physician", "Nurse", "Midwife", "Hilot", "Other"}
	LegitimacyStatuses = []string{LegitimacyLegitimate, LegitimacyIllegitimate}
)

// # Domain Entities

// Record is a birth registration with its child rows.
type Record struct {
	ID             int64  `json:"id"`
	RegistryNumber string `json:"registry_number"`

	FirstName  string  `json:"child_first_name"`
	MiddleName *string `json:"child_middle_name"`
	LastName   string  `json:"child_last_name"`
	Sex        string  `json:"sex"`

	DateOfBirth  civil.Date   `json:"date_of_birth"`
	TimeOfBirth  *civil.Clock `json:"time_of_birth"`
	PlaceOfBirth string       `json:"place_of_birth"`

	AddressHouse    *string `json:"birth_address_house"`
	AddressBarangay *string `json:"birth_address_barangay"`
	AddressCity     string  `json:"birth_address_city"`
	AddressProvince *string `json:"birth_address_province"`

	TypeOfBirth        string   `json:"type_of_birth"`
	MultipleBirthOrder *string  `json:"multiple_birth_order"`
	BirthOrder         int      `json:"birth_order"`
	BirthWeight        *float64 `json:"birth_weight"`
	BirthNotes         *string  `json:"birth_notes"`

	DateRegistered       civil.Date `json:"date_registered"`
	IsLateRegistration   bool       `json:"is_late_registration"`
	LegitimacyStatus     string     `json:"legitimacy_status"`
	FatherAcknowledgment *string    `json:"father_acknowledgment"`
	NameChanged          bool       `json:"name_changed"`
	CurrentFirstName     *string    `json:"current_first_name"`
	CurrentMiddleName    *string    `json:"current_middle_name"`
	CurrentLastName      *string    `json:"current_last_name"`

	EncodedBy sec.Principal `json:"-"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Mother          *Parent          `json:"mother"`
	Father          *Parent          `json:"father"`
	ParentsMarriage *ParentsMarriage `json:"parents_marriage"`
	Attendant       *Attendant       `json:"attendant"`
	Informant       *Informant       `json:"informant"`

	// Display fields, filled by [Record.Decorate].
	Encoder                 directory.Profile `json:"encoder"`
	FullName                string            `json:"full_name"`
	FormattedDateOfBirth    string            `json:"formatted_date_of_birth"`
	FormattedTimeOfBirth    string            `json:"formatted_time_of_birth"`
	FormattedDateRegistered string            `json:"formatted_date_registered"`
	BirthAddress            string            `json:"birth_address"`
}

// Parent is one row of parents_information.
type Parent struct {
	ID                  int64   `json:"id"`
	BirthRecordID       int64   `json:"birth_record_id"`
	ParentType          string  `json:"parent_type"`
	FirstName           string  `json:"first_name"`
	MiddleName          *string `json:"middle_name"`
	LastName            string  `json:"last_name"`
	Citizenship         string  `json:"citizenship"`
	Religion            *string `json:"religion"`
	Occupation          *string `json:"occupation"`
	AgeAtBirth          int     `json:"age_at_birth"`
	ChildrenBornAlive   int     `json:"children_born_alive"`
	ChildrenStillLiving int     `json:"children_still_living"`
	ChildrenDeceased    int     `json:"children_deceased"`
	HouseNo             *string `json:"house_no"`
	Barangay            string  `json:"barangay"`
	City                string  `json:"city"`
	Province            string  `json:"province"`
	Country             string  `json:"country"`

	FullName string `json:"full_name"`
}

// ParentsMarriage is the optional marriage of the parents.
type ParentsMarriage struct {
	ID            int64       `json:"id"`
	BirthRecordID int64       `json:"birth_record_id"`
	MarriageDate  *civil.Date `json:"marriage_date"`
	PlaceCity     *string     `json:"marriage_place_city"`
	PlaceProvince *string     `json:"marriage_place_province"`
	PlaceCountry  string      `json:"marriage_place_country"`
}

// Present reports whether the marriage carries any information. The country
// alone does not count, since it is defaulted.
func (marriage ParentsMarriage) Present() bool {
	return marriage.MarriageDate != nil || marriage.PlaceCity != nil || marriage.PlaceProvince != nil
}

// Attendant is the physician, nurse or midwife who attended the birth.
type Attendant struct {
	ID            int64   `json:"id"`
	BirthRecordID int64   `json:"birth_record_id"`
	Type          string  `json:"attendant_type"`
	Name          string  `json:"attendant_name"`
	License       *string `json:"attendant_license"`
	Certification string  `json:"attendant_certification"`
	Address       string  `json:"attendant_address"`
	Title         string  `json:"attendant_title"`
}

// Informant is the person who reported the birth.
type Informant struct {
	ID                    int64   `json:"id"`
	BirthRecordID         int64   `json:"birth_record_id"`
	FirstName             string  `json:"first_name"`
	MiddleName            *string `json:"middle_name"`
	LastName              string  `json:"last_name"`
	Relationship          string  `json:"relationship"`
	Address               string  `json:"address"`
	CertificationAccepted bool    `json:"certification_accepted"`

	FullName string `json:"full_name"`
}

// Match is the projection returned by similar-record and quick searches.
type Match struct {
	ID             int64      `json:"id"`
	RegistryNumber string     `json:"registry_number"`
	FirstName      string     `json:"child_first_name"`
	MiddleName     *string    `json:"child_middle_name"`
	LastName       string     `json:"child_last_name"`
	DateOfBirth    civil.Date `json:"date_of_birth"`
	Sex            string     `json:"sex"`
	PlaceOfBirth   string     `json:"place_of_birth"`
}

// Key is the duplicate identity of a birth: child name and date of birth, plus
// the place of birth when one is given.
type Key struct {
	FirstName    string
	LastName     string
	DateOfBirth  civil.Date
	PlaceOfBirth string
}

// lockKey covers name and date only, so a registration without a place waits
// for one with a place on the same identity.
func (key Key) lockKey() string {
	return dedupe.Key(key.FirstName, key.LastName, key.DateOfBirth.String())
}

// CheckedFields echoes the identity that was checked.
func (key Key) CheckedFields() map[string]string {
	fields := map[string]string{
		"child_first_name": key.FirstName,
		"child_last_name":  key.LastName,
		"date_of_birth":    key.DateOfBirth.String(),
	}
	if key.PlaceOfBirth != "" {
		fields["place_of_birth"] = key.PlaceOfBirth
	}
	return fields
}

// KeyOf returns the identity of a record.
func KeyOf(record *Record) Key {
	return Key{
		FirstName:    record.FirstName,
		LastName:     record.LastName,
		DateOfBirth:  record.DateOfBirth,
		PlaceOfBirth: record.PlaceOfBirth,
	}
}

// Statistics are the dashboard counters of the birth registry.
type Statistics struct {
	TotalRecords int `json:"total_records"`
	ThisMonth    int `json:"this_month"`
	ThisYear     int `json:"this_year"`
	Male         int `json:"male"`
	Female       int `json:"female"`
}

// # Display

// Decorate fills the display fields.
func (record *Record) Decorate(encoder directory.Profile) {
	record.Encoder = encoder
	record.FullName = registry.FullName(record.FirstName, registry.Deref(record.MiddleName), record.LastName)
	record.FormattedDateOfBirth = registry.LongDate(record.DateOfBirth)
	record.FormattedTimeOfBirth = registry.ShortTime(record.TimeOfBirth)
	record.FormattedDateRegistered = registry.LongDate(record.DateRegistered)
	record.BirthAddress = registry.JoinAddress(
		registry.Deref(record.AddressHouse),
		registry.Deref(record.AddressBarangay),
		record.AddressCity,
		registry.Deref(record.AddressProvince),
	)

	for _, parent := range []*Parent{record.Mother, record.Father} {
		if parent != nil {
			parent.FullName = registry.FullName(parent.FirstName, registry.Deref(parent.MiddleName), parent.LastName)
		}
	}
	if record.Informant != nil {
		informant := record.Informant
		informant.FullName = registry.FullName(informant.FirstName, registry.Deref(informant.MiddleName), informant.LastName)
	}
}
