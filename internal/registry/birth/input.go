// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package birth

import (
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

const maxText = 255

// Input is the flat registration form. The same form is used for updates.
type Input struct {
	ChildFirstName  string   `json:"child_first_name"`
	ChildMiddleName string   `json:"child_middle_name"`
	ChildLastName   string   `json:"child_last_name"`
	Sex             string   `json:"sex"`
	DateOfBirth     string   `json:"date_of_birth"`
	TimeOfBirth     string   `json:"time_of_birth"`
	PlaceOfBirth    string   `json:"place_of_birth"`
	AddressHouse    string   `json:"birth_address_house"`
	AddressBarangay string   `json:"birth_address_barangay"`
	AddressCity     string   `json:"birth_address_city"`
	AddressProvince string   `json:"birth_address_province"`
	TypeOfBirth     string   `json:"type_of_birth"`
	MultipleOrder   string   `json:"multiple_birth_order"`
	BirthOrder      *int     `json:"birth_order"`
	BirthWeight     *float64 `json:"birth_weight"`
	BirthNotes      string   `json:"birth_notes"`

	IsLateRegistration   bool   `json:"is_late_registration"`
	LegitimacyStatus     string `json:"legitimacy_status"`
	FatherAcknowledgment string `json:"father_acknowledgment"`
	NameChanged          bool   `json:"name_changed"`
	CurrentFirstName     string `json:"current_first_name"`
	CurrentMiddleName    string `json:"current_middle_name"`
	CurrentLastName      string `json:"current_last_name"`

	MotherFirstName           string `json:"mother_first_name"`
	MotherMiddleName          string `json:"mother_middle_name"`
	MotherLastName            string `json:"mother_last_name"`
	MotherCitizenship         string `json:"mother_citizenship"`
	MotherReligion            string `json:"mother_religion"`
	MotherOccupation          string `json:"mother_occupation"`
	MotherAgeAtBirth          *int   `json:"mother_age_at_birth"`
	MotherChildrenBornAlive   *int   `json:"mother_children_born_alive"`
	MotherChildrenStillLiving *int   `json:"mother_children_still_living"`
	MotherChildrenDeceased    *int   `json:"mother_children_deceased"`
	MotherHouseNo             string `json:"mother_house_no"`
	MotherBarangay            string `json:"mother_barangay"`
	MotherCity                string `json:"mother_city"`
	MotherProvince            string `json:"mother_province"`
	MotherCountry             string `json:"mother_country"`

	FatherFirstName   string `json:"father_first_name"`
	FatherMiddleName  string `json:"father_middle_name"`
	FatherLastName    string `json:"father_last_name"`
	FatherCitizenship string `json:"father_citizenship"`
	FatherReligion    string `json:"father_religion"`
	FatherOccupation  string `json:"father_occupation"`
	FatherAgeAtBirth  *int   `json:"father_age_at_birth"`
	FatherHouseNo     string `json:"father_house_no"`
	FatherBarangay    string `json:"father_barangay"`
	FatherCity        string `json:"father_city"`
	FatherProvince    string `json:"father_province"`
	FatherCountry     string `json:"father_country"`

	MarriageDate          string `json:"marriage_date"`
	MarriagePlaceCity     string `json:"marriage_place_city"`
	MarriagePlaceProvince string `json:"marriage_place_province"`
	MarriagePlaceCountry  string `json:"marriage_place_country"`

	AttendantType          string `json:"attendant_type"`
	AttendantName          string `json:"attendant_name"`
	AttendantLicense       string `json:"attendant_license"`
	AttendantCertification string `json:"attendant_certification"`
	AttendantAddress       string `json:"attendant_address"`
	AttendantTitle         string `json:"attendant_title"`

	InformantFirstName             string `json:"informant_first_name"`
	InformantMiddleName            string `json:"informant_middle_name"`
	InformantLastName              string `json:"informant_last_name"`
	InformantRelationship          string `json:"informant_relationship"`
	InformantAddress               string `json:"informant_address"`
	InformantCertificationAccepted *bool  `json:"informant_certification_accepted"`
}

// Validate checks the whole form. today bounds the date of birth.
func (input *Input) Validate(today time.Time) error {
	validator := &validate.Validator{}

	// Child
	validator.Required("child_first_name", input.ChildFirstName).MaxLen("child_first_name", input.ChildFirstName, maxText)
	validator.MaxLen("child_middle_name", input.ChildMiddleName, maxText)
	validator.Required("child_last_name", input.ChildLastName).MaxLen("child_last_name", input.ChildLastName, maxText)
	validator.Required("sex", input.Sex).OneOf("sex", input.Sex, Sexes...)
	validator.Required("date_of_birth", input.DateOfBirth).Date("date_of_birth", input.DateOfBirth).NotAfter("date_of_birth", input.DateOfBirth, today)
	validator.Clock("time_of_birth", input.TimeOfBirth)
	validator.Required("place_of_birth", input.PlaceOfBirth).MaxLen("place_of_birth", input.PlaceOfBirth, maxText)
	validator.MaxLen("birth_address_house", input.AddressHouse, maxText)
	validator.MaxLen("birth_address_barangay", input.AddressBarangay, maxText)
	validator.Required("birth_address_city", input.AddressCity).MaxLen("birth_address_city", input.AddressCity, maxText)
	validator.MaxLen("birth_address_province", input.AddressProvince, maxText)
	validator.Required("type_of_birth", input.TypeOfBirth).OneOf("type_of_birth", input.TypeOfBirth, BirthTypes...)
	validator.OneOf("multiple_birth_order", input.MultipleOrder, MultipleBirthOrder...)
	validator.Custom("birth_order", input.BirthOrder == nil, "This field is required").OptionalMin("birth_order", input.BirthOrder, 1)
	validator.FloatRange("birth_weight", input.BirthWeight, 0.5, 10)

	// Registration metadata
	validator.OneOf("legitimacy_status", input.LegitimacyStatus, LegitimacyStatuses...)
	validator.RequiredIf(input.NameChanged, "current_first_name", input.CurrentFirstName)
	validator.RequiredIf(input.NameChanged, "current_last_name", input.CurrentLastName)
	validator.MaxLen("current_first_name", input.CurrentFirstName, maxText)
	validator.MaxLen("current_middle_name", input.CurrentMiddleName, maxText)
	validator.MaxLen("current_last_name", input.CurrentLastName, maxText)

	// Mother
	validator.Required("mother_first_name", input.MotherFirstName).MaxLen("mother_first_name", input.MotherFirstName, maxText)
	validator.MaxLen("mother_middle_name", input.MotherMiddleName, maxText)
	validator.Required("mother_last_name", input.MotherLastName).MaxLen("mother_last_name", input.MotherLastName, maxText)
	validator.Required("mother_citizenship", input.MotherCitizenship).MaxLen("mother_citizenship", input.MotherCitizenship, maxText)
	validator.MaxLen("mother_religion", input.MotherReligion, maxText)
	validator.MaxLen("mother_occupation", input.MotherOccupation, maxText)
	requiredInt(validator, "mother_age_at_birth", input.MotherAgeAtBirth).OptionalRange("mother_age_at_birth", input.MotherAgeAtBirth, 15, 60)
	requiredInt(validator, "mother_children_born_alive", input.MotherChildrenBornAlive).OptionalMin("mother_children_born_alive", input.MotherChildrenBornAlive, 0)
	requiredInt(validator, "mother_children_still_living", input.MotherChildrenStillLiving).OptionalMin("mother_children_still_living", input.MotherChildrenStillLiving, 0)
	requiredInt(validator, "mother_children_deceased", input.MotherChildrenDeceased).OptionalMin("mother_children_deceased", input.MotherChildrenDeceased, 0)
	validator.MaxLen("mother_house_no", input.MotherHouseNo, maxText)
	validator.Required("mother_barangay", input.MotherBarangay).MaxLen("mother_barangay", input.MotherBarangay, maxText)
	validator.Required("mother_city", input.MotherCity).MaxLen("mother_city", input.MotherCity, maxText)
	validator.Required("mother_province", input.MotherProvince).MaxLen("mother_province", input.MotherProvince, maxText)
	validator.MaxLen("mother_country", input.MotherCountry, maxText)

	// Father
	validator.Required("father_first_name", input.FatherFirstName).MaxLen("father_first_name", input.FatherFirstName, maxText)
	validator.MaxLen("father_middle_name", input.FatherMiddleName, maxText)
	validator.Required("father_last_name", input.FatherLastName).MaxLen("father_last_name", input.FatherLastName, maxText)
	validator.Required("father_citizenship", input.FatherCitizenship).MaxLen("father_citizenship", input.FatherCitizenship, maxText)
	validator.MaxLen("father_religion", input.FatherReligion, maxText)
	validator.MaxLen("father_occupation", input.FatherOccupation, maxText)
	requiredInt(validator, "father_age_at_birth", input.FatherAgeAtBirth).OptionalRange("father_age_at_birth", input.FatherAgeAtBirth, 15, 80)
	validator.MaxLen("father_house_no", input.FatherHouseNo, maxText)
	validator.Required("father_barangay", input.FatherBarangay).MaxLen("father_barangay", input.FatherBarangay, maxText)
	validator.Required("father_city", input.FatherCity).MaxLen("father_city", input.FatherCity, maxText)
	validator.Required("father_province", input.FatherProvince).MaxLen("father_province", input.FatherProvince, maxText)
	validator.MaxLen("father_country", input.FatherCountry, maxText)

	// Parents' marriage
	validator.Date("marriage_date", input.MarriageDate)
	validator.MaxLen("marriage_place_city", input.MarriagePlaceCity, maxText)
	validator.MaxLen("marriage_place_province", input.MarriagePlaceProvince, maxText)
	validator.MaxLen("marriage_place_country", input.MarriagePlaceCountry, maxText)

	// Attendant
	validator.Required("attendant_type", input.AttendantType).OneOf("attendant_type", input.AttendantType, AttendantTypes...)
	validator.Required("attendant_name", input.AttendantName).MaxLen("attendant_name", input.AttendantName, maxText)
	validator.MaxLen("attendant_license", input.AttendantLicense, maxText)
	validator.Required("attendant_certification", input.AttendantCertification)
	validator.Required("attendant_address", input.AttendantAddress).MaxLen("attendant_address", input.AttendantAddress, maxText)
	validator.Required("attendant_title", input.AttendantTitle).MaxLen("attendant_title", input.AttendantTitle, maxText)

	// Informant
	validator.Required("informant_first_name", input.InformantFirstName).MaxLen("informant_first_name", input.InformantFirstName, maxText)
	validator.MaxLen("informant_middle_name", input.InformantMiddleName, maxText)
	validator.Required("informant_last_name", input.InformantLastName).MaxLen("informant_last_name", input.InformantLastName, maxText)
	validator.Required("informant_relationship", input.InformantRelationship).MaxLen("informant_relationship", input.InformantRelationship, maxText)
	validator.Required("informant_address", input.InformantAddress).MaxLen("informant_address", input.InformantAddress, maxText)
	validator.Custom("informant_certification_accepted", input.InformantCertificationAccepted == nil, "This field is required")

	return validator.Err()
}

func requiredInt(validator *validate.Validator, field string, value *int) *validate.Validator {
	return validator.Custom(field, value == nil, "This field is required")
}

// Record converts a validated form into a record with its child rows.
func (input *Input) Record() *Record {
	dateOfBirth, _ := civil.ParseDate(input.DateOfBirth)
	timeOfBirth, _ := civil.ParseOptionalClock(normalizeClock(input.TimeOfBirth))

	record := &Record{
		FirstName:          strings.TrimSpace(input.ChildFirstName),
		MiddleName:         registry.Optional(input.ChildMiddleName),
		LastName:           strings.TrimSpace(input.ChildLastName),
		Sex:                input.Sex,
		DateOfBirth:        dateOfBirth,
		TimeOfBirth:        timeOfBirth,
		PlaceOfBirth:       strings.TrimSpace(input.PlaceOfBirth),
		AddressHouse:       registry.Optional(input.AddressHouse),
		AddressBarangay:    registry.Optional(input.AddressBarangay),
		AddressCity:        strings.TrimSpace(input.AddressCity),
		AddressProvince:    registry.Optional(input.AddressProvince),
		TypeOfBirth:        input.TypeOfBirth,
		MultipleBirthOrder: registry.Optional(input.MultipleOrder),
		BirthOrder:         pointer.Val(input.BirthOrder),
		BirthWeight:        input.BirthWeight,
		BirthNotes:         registry.Optional(input.BirthNotes),

		IsLateRegistration:   input.IsLateRegistration,
		LegitimacyStatus:     fallback(input.LegitimacyStatus, LegitimacyLegitimate),
		FatherAcknowledgment: registry.Optional(input.FatherAcknowledgment),
		NameChanged:          input.NameChanged,
		IsActive:             true,
	}
	if input.NameChanged {
		record.CurrentFirstName = registry.Optional(input.CurrentFirstName)
		record.CurrentMiddleName = registry.Optional(input.CurrentMiddleName)
		record.CurrentLastName = registry.Optional(input.CurrentLastName)
	}

	record.Mother = &Parent{
		ParentType:          ParentMother,
		FirstName:           strings.TrimSpace(input.MotherFirstName),
		MiddleName:          registry.Optional(input.MotherMiddleName),
		LastName:            strings.TrimSpace(input.MotherLastName),
		Citizenship:         strings.TrimSpace(input.MotherCitizenship),
		Religion:            registry.Optional(input.MotherReligion),
		Occupation:          registry.Optional(input.MotherOccupation),
		AgeAtBirth:          pointer.Val(input.MotherAgeAtBirth),
		ChildrenBornAlive:   pointer.Val(input.MotherChildrenBornAlive),
		ChildrenStillLiving: pointer.Val(input.MotherChildrenStillLiving),
		ChildrenDeceased:    pointer.Val(input.MotherChildrenDeceased),
		HouseNo:             registry.Optional(input.MotherHouseNo),
		Barangay:            strings.TrimSpace(input.MotherBarangay),
		City:                strings.TrimSpace(input.MotherCity),
		Province:            strings.TrimSpace(input.MotherProvince),
		Country:             fallback(input.MotherCountry, DefaultCountry),
	}

	record.Father = &Parent{
		ParentType:  ParentFather,
		FirstName:   strings.TrimSpace(input.FatherFirstName),
		MiddleName:  registry.Optional(input.FatherMiddleName),
		LastName:    strings.TrimSpace(input.FatherLastName),
		Citizenship: strings.TrimSpace(input.FatherCitizenship),
		Religion:    registry.Optional(input.FatherReligion),
		Occupation:  registry.Optional(input.FatherOccupation),
		AgeAtBirth:  pointer.Val(input.FatherAgeAtBirth),
		HouseNo:     registry.Optional(input.FatherHouseNo),
		Barangay:    strings.TrimSpace(input.FatherBarangay),
		City:        strings.TrimSpace(input.FatherCity),
		Province:    strings.TrimSpace(input.FatherProvince),
		Country:     fallback(input.FatherCountry, DefaultCountry),
	}

	marriageDate, _ := civil.ParseOptionalDate(strings.TrimSpace(input.MarriageDate))
	marriage := ParentsMarriage{
		MarriageDate:  marriageDate,
		PlaceCity:     registry.Optional(input.MarriagePlaceCity),
		PlaceProvince: registry.Optional(input.MarriagePlaceProvince),
		PlaceCountry:  fallback(input.MarriagePlaceCountry, DefaultCountry),
	}
	if marriage.Present() {
		record.ParentsMarriage = &marriage
	}

	record.Attendant = &Attendant{
		Type:          input.AttendantType,
		Name:          strings.TrimSpace(input.AttendantName),
		License:       registry.Optional(input.AttendantLicense),
		Certification: strings.TrimSpace(input.AttendantCertification),
		Address:       strings.TrimSpace(input.AttendantAddress),
		Title:         strings.TrimSpace(input.AttendantTitle),
	}

	record.Informant = &Informant{
		FirstName:             strings.TrimSpace(input.InformantFirstName),
		MiddleName:            registry.Optional(input.InformantMiddleName),
		LastName:              strings.TrimSpace(input.InformantLastName),
		Relationship:          strings.TrimSpace(input.InformantRelationship),
		Address:               strings.TrimSpace(input.InformantAddress),
		CertificationAccepted: input.InformantCertificationAccepted != nil && *input.InformantCertificationAccepted,
	}

	return record
}

// CheckInput is the body of the check-duplicate endpoint.
type CheckInput struct {
	ChildFirstName string `json:"child_first_name"`
	ChildLastName  string `json:"child_last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PlaceOfBirth   string `json:"place_of_birth"`
	ExcludeID      int64  `json:"exclude_id"`
}

// Key validates the body and returns the identity to check.
func (input *CheckInput) Key() (Key, error) {
	validator := &validate.Validator{}
	validator.Required("child_first_name", input.ChildFirstName)
	validator.Required("child_last_name", input.ChildLastName)
	validator.Required("date_of_birth", input.DateOfBirth).Date("date_of_birth", input.DateOfBirth)
	if err := validator.Err(); err != nil {
		return Key{}, err
	}

	dateOfBirth, _ := civil.ParseDate(input.DateOfBirth)
	return Key{
		FirstName:    strings.TrimSpace(input.ChildFirstName),
		LastName:     strings.TrimSpace(input.ChildLastName),
		DateOfBirth:  dateOfBirth,
		PlaceOfBirth: strings.TrimSpace(input.PlaceOfBirth),
	}, nil
}

func fallback(value, otherwise string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return otherwise
}

// normalizeClock accepts "8:30" as well as "08:30".
func normalizeClock(value string) string {
	clock, err := validate.ParseClock(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	return clock
}
