// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marriage

import (
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

const maxText = 255

// Input is the flat registration form. The same form is used for updates.
type Input struct {
	Province         string `json:"province"`
	CityMunicipality string `json:"city_municipality"`
	DateOfMarriage   string `json:"date_of_marriage"`
	TimeOfMarriage   string `json:"time_of_marriage"`
	PlaceOfMarriage  string `json:"place_of_marriage"`
	MarriageType     string `json:"marriage_type"`
	LicenseNumber    string `json:"license_number"`
	LicenseDate      string `json:"license_date"`
	LicensePlace     string `json:"license_place"`
	PropertyRegime   string `json:"property_regime"`

	HusbandFirstName           string `json:"husband_first_name"`
	HusbandMiddleName          string `json:"husband_middle_name"`
	HusbandLastName            string `json:"husband_last_name"`
	HusbandBirthdate           string `json:"husband_birthdate"`
	HusbandBirthplace          string `json:"husband_birthplace"`
	HusbandSex                 string `json:"husband_sex"`
	HusbandCitizenship         string `json:"husband_citizenship"`
	HusbandReligion            string `json:"husband_religion"`
	HusbandCivilStatus         string `json:"husband_civil_status"`
	HusbandOccupation          string `json:"husband_occupation"`
	HusbandAddress             string `json:"husband_address"`
	HusbandFatherName          string `json:"husband_father_name"`
	HusbandFatherCitizenship   string `json:"husband_father_citizenship"`
	HusbandMotherName          string `json:"husband_mother_name"`
	HusbandMotherCitizenship   string `json:"husband_mother_citizenship"`
	HusbandConsentGiver        string `json:"husband_consent_giver"`
	HusbandConsentRelationship string `json:"husband_consent_relationship"`
	HusbandConsentAddress      string `json:"husband_consent_address"`

	WifeFirstName           string `json:"wife_first_name"`
	WifeMiddleName          string `json:"wife_middle_name"`
	WifeLastName            string `json:"wife_last_name"`
	WifeBirthdate           string `json:"wife_birthdate"`
	WifeBirthplace          string `json:"wife_birthplace"`
	WifeSex                 string `json:"wife_sex"`
	WifeCitizenship         string `json:"wife_citizenship"`
	WifeReligion            string `json:"wife_religion"`
	WifeCivilStatus         string `json:"wife_civil_status"`
	WifeOccupation          string `json:"wife_occupation"`
	WifeAddress             string `json:"wife_address"`
	WifeFatherName          string `json:"wife_father_name"`
	WifeFatherCitizenship   string `json:"wife_father_citizenship"`
	WifeMotherName          string `json:"wife_mother_name"`
	WifeMotherCitizenship   string `json:"wife_mother_citizenship"`
	WifeConsentGiver        string `json:"wife_consent_giver"`
	WifeConsentRelationship string `json:"wife_consent_relationship"`
	WifeConsentAddress      string `json:"wife_consent_address"`

	OfficiatingOfficer string `json:"officiating_officer"`
	OfficiantTitle     string `json:"officiant_title"`
	OfficiantLicense   string `json:"officiant_license"`
	LegalBasis         string `json:"legal_basis"`
	LegalBasisArticle  string `json:"legal_basis_article"`

	Witness1Name         string `json:"witness1_name"`
	Witness1Address      string `json:"witness1_address"`
	Witness1Relationship string `json:"witness1_relationship"`
	Witness2Name         string `json:"witness2_name"`
	Witness2Address      string `json:"witness2_address"`
	Witness2Relationship string `json:"witness2_relationship"`
	Remarks              string `json:"marriage_remarks"`
}

// spouse is a read-only view over one side of the form, so both spouses share
// one set of rules.
type spouse struct {
	prefix string
	values map[string]string
}

func (input *Input) spouses() []spouse {
	return []spouse{
		{prefix: "husband", values: map[string]string{
			"first_name": input.HusbandFirstName, "middle_name": input.HusbandMiddleName, "last_name": input.HusbandLastName,
			"birthdate": input.HusbandBirthdate, "birthplace": input.HusbandBirthplace, "sex": input.HusbandSex,
			"citizenship": input.HusbandCitizenship, "religion": input.HusbandReligion, "civil_status": input.HusbandCivilStatus,
			"occupation": input.HusbandOccupation, "address": input.HusbandAddress,
			"father_name": input.HusbandFatherName, "father_citizenship": input.HusbandFatherCitizenship,
			"mother_name": input.HusbandMotherName, "mother_citizenship": input.HusbandMotherCitizenship,
			"consent_giver": input.HusbandConsentGiver, "consent_relationship": input.HusbandConsentRelationship,
			"consent_address": input.HusbandConsentAddress,
		}},
		{prefix: "wife", values: map[string]string{
			"first_name": input.WifeFirstName, "middle_name": input.WifeMiddleName, "last_name": input.WifeLastName,
			"birthdate": input.WifeBirthdate, "birthplace": input.WifeBirthplace, "sex": input.WifeSex,
			"citizenship": input.WifeCitizenship, "religion": input.WifeReligion, "civil_status": input.WifeCivilStatus,
			"occupation": input.WifeOccupation, "address": input.WifeAddress,
			"father_name": input.WifeFatherName, "father_citizenship": input.WifeFatherCitizenship,
			"mother_name": input.WifeMotherName, "mother_citizenship": input.WifeMotherCitizenship,
			"consent_giver": input.WifeConsentGiver, "consent_relationship": input.WifeConsentRelationship,
			"consent_address": input.WifeConsentAddress,
		}},
	}
}

var (
	spouseRequired = []string{
		"first_name", "last_name", "birthplace", "citizenship",
		"father_name", "father_citizenship", "mother_name", "mother_citizenship",
	}
	spouseOptional = []string{
		"middle_name", "religion", "occupation", "consent_giver", "consent_relationship", "consent_address",
	}
)

func (side spouse) validate(validator *validate.Validator, today time.Time) {
	field := func(name string) string { return side.prefix + "_" + name }

	for _, name := range spouseRequired {
		validator.Required(field(name), side.values[name]).MaxLen(field(name), side.values[name], maxText)
	}
	for _, name := range spouseOptional {
		validator.MaxLen(field(name), side.values[name], maxText)
	}
	validator.Required(field("birthdate"), side.values["birthdate"]).
		Date(field("birthdate"), side.values["birthdate"]).
		NotAfter(field("birthdate"), side.values["birthdate"], today)
	validator.Required(field("sex"), side.values["sex"]).OneOf(field("sex"), side.values["sex"], Sexes...)
	validator.Required(field("civil_status"), side.values["civil_status"]).OneOf(field("civil_status"), side.values["civil_status"], CivilStatuses...)
	validator.Required(field("address"), side.values["address"])
}

// Validate checks the whole form. today bounds the dates.
func (input *Input) Validate(today time.Time) error {
	validator := &validate.Validator{}

	// Ceremony
	validator.Required("province", input.Province).MaxLen("province", input.Province, maxText)
	validator.Required("city_municipality", input.CityMunicipality).MaxLen("city_municipality", input.CityMunicipality, maxText)
	validator.Required("date_of_marriage", input.DateOfMarriage).Date("date_of_marriage", input.DateOfMarriage).NotAfter("date_of_marriage", input.DateOfMarriage, today)
	validator.Required("time_of_marriage", input.TimeOfMarriage).Clock("time_of_marriage", input.TimeOfMarriage)
	validator.Required("place_of_marriage", input.PlaceOfMarriage).MaxLen("place_of_marriage", input.PlaceOfMarriage, maxText)
	validator.Required("marriage_type", input.MarriageType).OneOf("marriage_type", input.MarriageType, MarriageTypes...)
	validator.Required("license_number", input.LicenseNumber).MaxLen("license_number", input.LicenseNumber, maxText)
	validator.Required("license_date", input.LicenseDate).Date("license_date", input.LicenseDate)
	validator.Required("license_place", input.LicensePlace).MaxLen("license_place", input.LicensePlace, maxText)
	validator.Required("property_regime", input.PropertyRegime).OneOf("property_regime", input.PropertyRegime, PropertyRegimes...)

	for _, side := range input.spouses() {
		side.validate(validator, today)
	}

	// Officiant and legal basis
	validator.Required("officiating_officer", input.OfficiatingOfficer).MaxLen("officiating_officer", input.OfficiatingOfficer, maxText)
	validator.MaxLen("officiant_title", input.OfficiantTitle, maxText)
	validator.MaxLen("officiant_license", input.OfficiantLicense, maxText)
	validator.MaxLen("legal_basis", input.LegalBasis, maxText)
	validator.MaxLen("legal_basis_article", input.LegalBasisArticle, maxText)

	// Witnesses
	validator.Required("witness1_name", input.Witness1Name).MaxLen("witness1_name", input.Witness1Name, maxText)
	validator.Required("witness1_address", input.Witness1Address).MaxLen("witness1_address", input.Witness1Address, maxText)
	validator.MaxLen("witness1_relationship", input.Witness1Relationship, maxText)
	validator.Required("witness2_name", input.Witness2Name).MaxLen("witness2_name", input.Witness2Name, maxText)
	validator.Required("witness2_address", input.Witness2Address).MaxLen("witness2_address", input.Witness2Address, maxText)
	validator.MaxLen("witness2_relationship", input.Witness2Relationship, maxText)

	return validator.Err()
}

// Record converts a validated form into a record.
func (input *Input) Record() *Record {
	date := func(value string) civil.Date {
		parsed, _ := civil.ParseDate(strings.TrimSpace(value))
		return parsed
	}
	clock, _ := validate.ParseClock(strings.TrimSpace(input.TimeOfMarriage))
	timeOfMarriage, _ := civil.ParseClock(clock)

	return &Record{
		Province:         strings.TrimSpace(input.Province),
		CityMunicipality: strings.TrimSpace(input.CityMunicipality),
		DateOfMarriage:   date(input.DateOfMarriage),
		TimeOfMarriage:   timeOfMarriage,
		PlaceOfMarriage:  strings.TrimSpace(input.PlaceOfMarriage),
		MarriageType:     input.MarriageType,
		LicenseNumber:    strings.TrimSpace(input.LicenseNumber),
		LicenseDate:      date(input.LicenseDate),
		LicensePlace:     strings.TrimSpace(input.LicensePlace),
		PropertyRegime:   input.PropertyRegime,

		HusbandFirstName:           strings.TrimSpace(input.HusbandFirstName),
		HusbandMiddleName:          registry.Optional(input.HusbandMiddleName),
		HusbandLastName:            strings.TrimSpace(input.HusbandLastName),
		HusbandBirthdate:           date(input.HusbandBirthdate),
		HusbandBirthplace:          strings.TrimSpace(input.HusbandBirthplace),
		HusbandSex:                 input.HusbandSex,
		HusbandCitizenship:         strings.TrimSpace(input.HusbandCitizenship),
		HusbandReligion:            registry.Optional(input.HusbandReligion),
		HusbandCivilStatus:         input.HusbandCivilStatus,
		HusbandOccupation:          registry.Optional(input.HusbandOccupation),
		HusbandAddress:             strings.TrimSpace(input.HusbandAddress),
		HusbandFatherName:          strings.TrimSpace(input.HusbandFatherName),
		HusbandFatherCitizenship:   strings.TrimSpace(input.HusbandFatherCitizenship),
		HusbandMotherName:          strings.TrimSpace(input.HusbandMotherName),
		HusbandMotherCitizenship:   strings.TrimSpace(input.HusbandMotherCitizenship),
		HusbandConsentGiver:        registry.Optional(input.HusbandConsentGiver),
		HusbandConsentRelationship: registry.Optional(input.HusbandConsentRelationship),
		HusbandConsentAddress:      registry.Optional(input.HusbandConsentAddress),

		WifeFirstName:           strings.TrimSpace(input.WifeFirstName),
		WifeMiddleName:          registry.Optional(input.WifeMiddleName),
		WifeLastName:            strings.TrimSpace(input.WifeLastName),
		WifeBirthdate:           date(input.WifeBirthdate),
		WifeBirthplace:          strings.TrimSpace(input.WifeBirthplace),
		WifeSex:                 input.WifeSex,
		WifeCitizenship:         strings.TrimSpace(input.WifeCitizenship),
		WifeReligion:            registry.Optional(input.WifeReligion),
		WifeCivilStatus:         input.WifeCivilStatus,
		WifeOccupation:          registry.Optional(input.WifeOccupation),
		WifeAddress:             strings.TrimSpace(input.WifeAddress),
		WifeFatherName:          strings.TrimSpace(input.WifeFatherName),
		WifeFatherCitizenship:   strings.TrimSpace(input.WifeFatherCitizenship),
		WifeMotherName:          strings.TrimSpace(input.WifeMotherName),
		WifeMotherCitizenship:   strings.TrimSpace(input.WifeMotherCitizenship),
		WifeConsentGiver:        registry.Optional(input.WifeConsentGiver),
		WifeConsentRelationship: registry.Optional(input.WifeConsentRelationship),
		WifeConsentAddress:      registry.Optional(input.WifeConsentAddress),

		OfficiatingOfficer: strings.TrimSpace(input.OfficiatingOfficer),
		OfficiantTitle:     registry.Optional(input.OfficiantTitle),
		OfficiantLicense:   registry.Optional(input.OfficiantLicense),
		LegalBasis:         registry.Optional(input.LegalBasis),
		LegalBasisArticle:  registry.Optional(input.LegalBasisArticle),

		Witness1Name:         strings.TrimSpace(input.Witness1Name),
		Witness1Address:      strings.TrimSpace(input.Witness1Address),
		Witness1Relationship: registry.Optional(input.Witness1Relationship),
		Witness2Name:         strings.TrimSpace(input.Witness2Name),
		Witness2Address:      strings.TrimSpace(input.Witness2Address),
		Witness2Relationship: registry.Optional(input.Witness2Relationship),
		Remarks:              registry.Optional(input.Remarks),

		IsActive: true,
	}
}

// CheckInput is the body of the check-duplicate endpoint.
type CheckInput struct {
	HusbandFirstName string `json:"husband_first_name"`
	HusbandLastName  string `json:"husband_last_name"`
	WifeFirstName    string `json:"wife_first_name"`
	WifeLastName     string `json:"wife_last_name"`
	DateOfMarriage   string `json:"date_of_marriage"`
	PlaceOfMarriage  string `json:"place_of_marriage"`
	ExcludeID        int64  `json:"exclude_id"`
}

// Key validates the body and returns the identity to check.
func (input *CheckInput) Key() (Key, error) {
	validator := &validate.Validator{}
	validator.Required("husband_first_name", input.HusbandFirstName)
	validator.Required("husband_last_name", input.HusbandLastName)
	validator.Required("wife_first_name", input.WifeFirstName)
	validator.Required("wife_last_name", input.WifeLastName)
	validator.Required("date_of_marriage", input.DateOfMarriage).Date("date_of_marriage", input.DateOfMarriage)
	if err := validator.Err(); err != nil {
		return Key{}, err
	}

	date, _ := civil.ParseDate(input.DateOfMarriage)
	return Key{
		HusbandFirstName: strings.TrimSpace(input.HusbandFirstName),
		HusbandLastName:  strings.TrimSpace(input.HusbandLastName),
		WifeFirstName:    strings.TrimSpace(input.WifeFirstName),
		WifeLastName:     strings.TrimSpace(input.WifeLastName),
		DateOfMarriage:   date,
		PlaceOfMarriage:  strings.TrimSpace(input.PlaceOfMarriage),
	}, nil
}
