// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package marriage manages certificates of marriage.

A marriage record is a single row: both spouses with their parents and consent
givers, the ceremony and license, the officiant and two witnesses. Duplicate
identity is the couple's names and the date of marriage, plus the place when
one is given.
*/
package marriage

import (
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/dedupe"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

// # Domain Enums

var (
	Sexes           = []string{"Male", "Female"}
	MarriageTypes   = []string{"Civil", "Church", "Tribal", "Other"}
	PropertyRegimes = []string{"Absolute Community", "Conjugal Partnership", "Separation of Property", "Other"}
	CivilStatuses   = []string{"Single", "Widowed", "Divorced", "Annulled"}
)

// # Domain Entities

// Record is a marriage registration.
type Record struct {
	ID             int64  `json:"id"`
	RegistryNumber string `json:"registry_number"`

	Province         string      `json:"province"`
	CityMunicipality string      `json:"city_municipality"`
	DateOfMarriage   civil.Date  `json:"date_of_marriage"`
	TimeOfMarriage   civil.Clock `json:"time_of_marriage"`
	PlaceOfMarriage  string      `json:"place_of_marriage"`
	MarriageType     string      `json:"marriage_type"`
	LicenseNumber    string      `json:"license_number"`
	LicenseDate      civil.Date  `json:"license_date"`
	LicensePlace     string      `json:"license_place"`
	PropertyRegime   string      `json:"property_regime"`

	HusbandFirstName           string     `json:"husband_first_name"`
	HusbandMiddleName          *string    `json:"husband_middle_name"`
	HusbandLastName            string     `json:"husband_last_name"`
	HusbandBirthdate           civil.Date `json:"husband_birthdate"`
	HusbandBirthplace          string     `json:"husband_birthplace"`
	HusbandSex                 string     `json:"husband_sex"`
	HusbandCitizenship         string     `json:"husband_citizenship"`
	HusbandReligion            *string    `json:"husband_religion"`
	HusbandCivilStatus         string     `json:"husband_civil_status"`
	HusbandOccupation          *string    `json:"husband_occupation"`
	HusbandAddress             string     `json:"husband_address"`
	HusbandFatherName          string     `json:"husband_father_name"`
	HusbandFatherCitizenship   string     `json:"husband_father_citizenship"`
	HusbandMotherName          string     `json:"husband_mother_name"`
	HusbandMotherCitizenship   string     `json:"husband_mother_citizenship"`
	HusbandConsentGiver        *string    `json:"husband_consent_giver"`
	HusbandConsentRelationship *string    `json:"husband_consent_relationship"`
	HusbandConsentAddress      *string    `json:"husband_consent_address"`

	WifeFirstName           string     `json:"wife_first_name"`
	WifeMiddleName          *string    `json:"wife_middle_name"`
	WifeLastName            string     `json:"wife_last_name"`
	WifeBirthdate           civil.Date `json:"wife_birthdate"`
	WifeBirthplace          string     `json:"wife_birthplace"`
	WifeSex                 string     `json:"wife_sex"`
	WifeCitizenship         string     `json:"wife_citizenship"`
	WifeReligion            *string    `json:"wife_religion"`
	WifeCivilStatus         string     `json:"wife_civil_status"`
	WifeOccupation          *string    `json:"wife_occupation"`
	WifeAddress             string     `json:"wife_address"`
	WifeFatherName          string     `json:"wife_father_name"`
	WifeFatherCitizenship   string     `json:"wife_father_citizenship"`
	WifeMotherName          string     `json:"wife_mother_name"`
	WifeMotherCitizenship   string     `json:"wife_mother_citizenship"`
	WifeConsentGiver        *string    `json:"wife_consent_giver"`
	WifeConsentRelationship *string    `json:"wife_consent_relationship"`
	WifeConsentAddress      *string    `json:"wife_consent_address"`

	OfficiatingOfficer string  `json:"officiating_officer"`
	OfficiantTitle     *string `json:"officiant_title"`
	OfficiantLicense   *string `json:"officiant_license"`
	LegalBasis         *string `json:"legal_basis"`
	LegalBasisArticle  *string `json:"legal_basis_article"`

	Witness1Name         string  `json:"witness1_name"`
	Witness1Address      string  `json:"witness1_address"`
	Witness1Relationship *string `json:"witness1_relationship"`
	Witness2Name         string  `json:"witness2_name"`
	Witness2Address      string  `json:"witness2_address"`
	Witness2Relationship *string `json:"witness2_relationship"`
	Remarks              *string `json:"marriage_remarks"`

	DateRegistered civil.Date    `json:"date_registered"`
	EncodedBy      sec.Principal `json:"-"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Display fields, filled by [Record.Decorate].
	Encoder                 directory.Profile `json:"encoder"`
	HusbandFullName         string            `json:"husband_full_name"`
	WifeFullName            string            `json:"wife_full_name"`
	CoupleNames             string            `json:"couple_names"`
	FormattedDateOfMarriage string            `json:"formatted_date_of_marriage"`
	FormattedTimeOfMarriage string            `json:"formatted_time_of_marriage"`
	FormattedDateRegistered string            `json:"formatted_date_registered"`
}

// Match is the projection returned by similar-record and quick searches.
type Match struct {
	ID               int64      `json:"id"`
	RegistryNumber   string     `json:"registry_number"`
	HusbandFirstName string     `json:"husband_first_name"`
	HusbandLastName  string     `json:"husband_last_name"`
	WifeFirstName    string     `json:"wife_first_name"`
	WifeLastName     string     `json:"wife_last_name"`
	DateOfMarriage   civil.Date `json:"date_of_marriage"`
	PlaceOfMarriage  string     `json:"place_of_marriage"`
}

// Key is the duplicate identity of a marriage.
type Key struct {
	HusbandFirstName string
	HusbandLastName  string
	WifeFirstName    string
	WifeLastName     string
	DateOfMarriage   civil.Date
	PlaceOfMarriage  string
}

func (key Key) lockKey() string {
	return dedupe.Key(key.HusbandFirstName, key.HusbandLastName, key.WifeFirstName, key.WifeLastName, key.DateOfMarriage.String())
}

// CheckedFields echoes the identity that was checked.
func (key Key) CheckedFields() map[string]string {
	fields := map[string]string{
		"husband_first_name": key.HusbandFirstName,
		"husband_last_name":  key.HusbandLastName,
		"wife_first_name":    key.WifeFirstName,
		"wife_last_name":     key.WifeLastName,
		"date_of_marriage":   key.DateOfMarriage.String(),
	}
	if key.PlaceOfMarriage != "" {
		fields["place_of_marriage"] = key.PlaceOfMarriage
	}
	return fields
}

// KeyOf returns the identity of a record.
func KeyOf(record *Record) Key {
	return Key{
		HusbandFirstName: record.HusbandFirstName,
		HusbandLastName:  record.HusbandLastName,
		WifeFirstName:    record.WifeFirstName,
		WifeLastName:     record.WifeLastName,
		DateOfMarriage:   record.DateOfMarriage,
		PlaceOfMarriage:  record.PlaceOfMarriage,
	}
}

// Statistics count registrations by creation time.
type Statistics struct {
	TotalRecords int `json:"total_records"`
	ThisMonth    int `json:"this_month"`
	ThisYear     int `json:"this_year"`
}

// Decorate fills the display fields.
func (record *Record) Decorate(encoder directory.Profile) {
	record.Encoder = encoder
	record.HusbandFullName = registry.FullName(record.HusbandFirstName, registry.Deref(record.HusbandMiddleName), record.HusbandLastName)
	record.WifeFullName = registry.FullName(record.WifeFirstName, registry.Deref(record.WifeMiddleName), record.WifeLastName)
	record.CoupleNames = record.HusbandFullName + " & " + record.WifeFullName
	record.FormattedDateOfMarriage = registry.LongDate(record.DateOfMarriage)
	record.FormattedTimeOfMarriage = registry.ShortTime(&record.TimeOfMarriage)
	record.FormattedDateRegistered = registry.LongDate(record.DateRegistered)
}
