// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package death

import (
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

const (
	maxText = 255
	maxLong = 500
)

// Input is the flat registration form. The same form is used for updates.
type Input struct {
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name"`
	Sex         string `json:"sex"`
	CivilStatus string `json:"civil_status"`
	DateOfDeath string `json:"date_of_death"`
	DateOfBirth string `json:"date_of_birth"`
	AgeYears    *int   `json:"age_years"`
	AgeMonths   *int   `json:"age_months"`
	AgeDays     *int   `json:"age_days"`
	AgeHours    *int   `json:"age_hours"`
	AgeMinutes  *int   `json:"age_minutes"`
	AgeUnder1   bool   `json:"age_under_1"`

	PlaceOfDeath     string `json:"place_of_death"`
	Religion         string `json:"religion"`
	Citizenship      string `json:"citizenship"`
	Residence        string `json:"residence"`
	Occupation       string `json:"occupation"`
	FatherName       string `json:"father_name"`
	MotherMaidenName string `json:"mother_maiden_name"`

	ImmediateCause             string `json:"immediate_cause"`
	AntecedentCause            string `json:"antecedent_cause"`
	UnderlyingCause            string `json:"underlying_cause"`
	OtherSignificantConditions string `json:"other_significant_conditions"`
	MaternalCondition          string `json:"maternal_condition"`
	MannerOfDeath              string `json:"manner_of_death"`
	PlaceOfOccurrence          string `json:"place_of_occurrence"`
	Autopsy                    string `json:"autopsy"`

	Attendant      string `json:"attendant"`
	AttendantOther string `json:"attendant_other"`
	AttendedFrom   string `json:"attended_from"`
	AttendedTo     string `json:"attended_to"`

	CertifierSignature string `json:"certifier_signature"`
	CertifierName      string `json:"certifier_name"`
	CertifierTitle     string `json:"certifier_title"`
	CertifierAddress   string `json:"certifier_address"`
	CertifierDate      string `json:"certifier_date"`
	AttendedDeceased   string `json:"attended_deceased"`
	DeathOccurredTime  string `json:"death_occurred_time"`

	CorpseDisposal       string `json:"corpse_disposal"`
	BurialPermitNumber   string `json:"burial_permit_number"`
	BurialPermitDate     string `json:"burial_permit_date"`
	TransferPermitNumber string `json:"transfer_permit_number"`
	TransferPermitDate   string `json:"transfer_permit_date"`
	CemeteryName         string `json:"cemetery_name"`
	CemeteryAddress      string `json:"cemetery_address"`

	InformantSignature    string `json:"informant_signature"`
	InformantName         string `json:"informant_name"`
	InformantRelationship string `json:"informant_relationship"`
	InformantAddress      string `json:"informant_address"`
	InformantDate         string `json:"informant_date"`
}

// Validate checks the whole form. today bounds the dates.
func (input *Input) Validate(today time.Time) error {
	validator := &validate.Validator{}

	// Decedent
	validator.Required("first_name", input.FirstName).MaxLen("first_name", input.FirstName, maxText)
	validator.MaxLen("middle_name", input.MiddleName, maxText)
	validator.Required("last_name", input.LastName).MaxLen("last_name", input.LastName, maxText)
	validator.Required("sex", input.Sex).OneOf("sex", input.Sex, Sexes...)
	validator.Required("civil_status", input.CivilStatus).OneOf("civil_status", input.CivilStatus, CivilStatuses...)
	validator.Required("date_of_birth", input.DateOfBirth).
		Date("date_of_birth", input.DateOfBirth).
		NotAfter("date_of_birth", input.DateOfBirth, today)
	validator.Required("date_of_death", input.DateOfDeath).
		Date("date_of_death", input.DateOfDeath).
		NotAfter("date_of_death", input.DateOfDeath, today).
		NotBefore("date_of_death", input.DateOfDeath, "date_of_birth", input.DateOfBirth)

	validator.OptionalMin("age_years", input.AgeYears, 0)
	validator.OptionalRange("age_months", input.AgeMonths, 0, 11)
	validator.OptionalRange("age_days", input.AgeDays, 0, 30)
	validator.OptionalRange("age_hours", input.AgeHours, 0, 23)
	validator.OptionalRange("age_minutes", input.AgeMinutes, 0, 59)

	validator.Required("place_of_death", input.PlaceOfDeath).MaxLen("place_of_death", input.PlaceOfDeath, maxLong)
	validator.MaxLen("religion", input.Religion, maxText)
	validator.Required("citizenship", input.Citizenship).MaxLen("citizenship", input.Citizenship, maxText)
	validator.Required("residence", input.Residence).MaxLen("residence", input.Residence, maxLong)
	validator.MaxLen("occupation", input.Occupation, maxText)
	validator.Required("father_name", input.FatherName).MaxLen("father_name", input.FatherName, maxText)
	validator.Required("mother_maiden_name", input.MotherMaidenName).MaxLen("mother_maiden_name", input.MotherMaidenName, maxText)

	// Medical certificate
	validator.Required("immediate_cause", input.ImmediateCause).MaxLen("immediate_cause", input.ImmediateCause, maxText)
	for _, optional := range []struct{ field, value string }{
		{"antecedent_cause", input.AntecedentCause},
		{"underlying_cause", input.UnderlyingCause},
		{"other_significant_conditions", input.OtherSignificantConditions},
		{"maternal_condition", input.MaternalCondition},
		{"manner_of_death", input.MannerOfDeath},
		{"place_of_occurrence", input.PlaceOfOccurrence},
		{"attendant_other", input.AttendantOther},
		{"certifier_signature", input.CertifierSignature},
		{"certifier_title", input.CertifierTitle},
		{"burial_permit_number", input.BurialPermitNumber},
		{"transfer_permit_number", input.TransferPermitNumber},
		{"cemetery_name", input.CemeteryName},
		{"informant_signature", input.InformantSignature},
	} {
		validator.MaxLen(optional.field, optional.value, maxText)
	}
	validator.OneOf("autopsy", input.Autopsy, YesNo...)
	validator.Required("attendant", input.Attendant).MaxLen("attendant", input.Attendant, maxText)
	validator.Date("attended_from", input.AttendedFrom).
		Date("attended_to", input.AttendedTo).
		NotBefore("attended_to", input.AttendedTo, "attended_from", input.AttendedFrom)

	// Certification
	validator.Required("certifier_name", input.CertifierName).MaxLen("certifier_name", input.CertifierName, maxText)
	validator.MaxLen("certifier_address", input.CertifierAddress, maxLong)
	validator.Date("certifier_date", input.CertifierDate)
	validator.OneOf("attended_deceased", input.AttendedDeceased, YesNo...)
	validator.MaxLen("death_occurred_time", input.DeathOccurredTime, 50)

	// Disposal
	validator.OneOf("corpse_disposal", input.CorpseDisposal, CorpseDisposals...)
	validator.Date("burial_permit_date", input.BurialPermitDate)
	validator.Date("transfer_permit_date", input.TransferPermitDate)
	validator.MaxLen("cemetery_address", input.CemeteryAddress, maxLong)

	// Informant
	validator.Required("informant_name", input.InformantName).MaxLen("informant_name", input.InformantName, maxText)
	validator.Required("informant_relationship", input.InformantRelationship).MaxLen("informant_relationship", input.InformantRelationship, maxText)
	validator.MaxLen("informant_address", input.InformantAddress, maxLong)
	validator.Date("informant_date", input.InformantDate)

	return validator.Err()
}

// Record converts a validated form into a record. When age_under_1 is set the
// years are dropped, otherwise the sub-year fields are.
func (input *Input) Record() *Record {
	date := func(value string) civil.Date {
		parsed, _ := civil.ParseDate(strings.TrimSpace(value))
		return parsed
	}
	optionalDate := func(value string) *civil.Date {
		parsed, _ := civil.ParseOptionalDate(strings.TrimSpace(value))
		return parsed
	}

	age := Age{Under1: input.AgeUnder1}
	if input.AgeUnder1 {
		age.Months, age.Days, age.Hours, age.Minutes = input.AgeMonths, input.AgeDays, input.AgeHours, input.AgeMinutes
	} else {
		age.Years = input.AgeYears
	}

	return &Record{
		FirstName:   strings.TrimSpace(input.FirstName),
		MiddleName:  registry.Optional(input.MiddleName),
		LastName:    strings.TrimSpace(input.LastName),
		Sex:         input.Sex,
		CivilStatus: input.CivilStatus,
		DateOfDeath: date(input.DateOfDeath),
		DateOfBirth: date(input.DateOfBirth),
		Age:         age,

		PlaceOfDeath:     strings.TrimSpace(input.PlaceOfDeath),
		Religion:         registry.Optional(input.Religion),
		Citizenship:      strings.TrimSpace(input.Citizenship),
		Residence:        strings.TrimSpace(input.Residence),
		Occupation:       registry.Optional(input.Occupation),
		FatherName:       strings.TrimSpace(input.FatherName),
		MotherMaidenName: strings.TrimSpace(input.MotherMaidenName),

		ImmediateCause:             strings.TrimSpace(input.ImmediateCause),
		AntecedentCause:            registry.Optional(input.AntecedentCause),
		UnderlyingCause:            registry.Optional(input.UnderlyingCause),
		OtherSignificantConditions: registry.Optional(input.OtherSignificantConditions),
		MaternalCondition:          registry.Optional(input.MaternalCondition),
		MannerOfDeath:              registry.Optional(input.MannerOfDeath),
		PlaceOfOccurrence:          registry.Optional(input.PlaceOfOccurrence),
		Autopsy:                    registry.Optional(input.Autopsy),

		Attendant:      strings.TrimSpace(input.Attendant),
		AttendantOther: registry.Optional(input.AttendantOther),
		AttendedFrom:   optionalDate(input.AttendedFrom),
		AttendedTo:     optionalDate(input.AttendedTo),

		CertifierSignature: registry.Optional(input.CertifierSignature),
		CertifierName:      strings.TrimSpace(input.CertifierName),
		CertifierTitle:     registry.Optional(input.CertifierTitle),
		CertifierAddress:   registry.Optional(input.CertifierAddress),
		CertifierDate:      optionalDate(input.CertifierDate),
		AttendedDeceased:   registry.Optional(input.AttendedDeceased),
		DeathOccurredTime:  registry.Optional(input.DeathOccurredTime),

		CorpseDisposal:       registry.Optional(input.CorpseDisposal),
		BurialPermitNumber:   registry.Optional(input.BurialPermitNumber),
		BurialPermitDate:     optionalDate(input.BurialPermitDate),
		TransferPermitNumber: registry.Optional(input.TransferPermitNumber),
		TransferPermitDate:   optionalDate(input.TransferPermitDate),
		CemeteryName:         registry.Optional(input.CemeteryName),
		CemeteryAddress:      registry.Optional(input.CemeteryAddress),

		InformantSignature:    registry.Optional(input.InformantSignature),
		InformantName:         strings.TrimSpace(input.InformantName),
		InformantRelationship: strings.TrimSpace(input.InformantRelationship),
		InformantAddress:      registry.Optional(input.InformantAddress),
		InformantDate:         optionalDate(input.InformantDate),

		IsActive: true,
	}
}

// CheckInput is the body of the check-duplicate endpoint.
type CheckInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfDeath string `json:"date_of_death"`
	DateOfBirth string `json:"date_of_birth"`
	ExcludeID   int64  `json:"exclude_id"`
}

// Key validates the body and returns the identity to check.
func (input *CheckInput) Key() (Key, error) {
	validator := &validate.Validator{}
	validator.Required("first_name", input.FirstName)
	validator.Required("last_name", input.LastName)
	validator.Required("date_of_death", input.DateOfDeath).Date("date_of_death", input.DateOfDeath)
	validator.Required("date_of_birth", input.DateOfBirth).Date("date_of_birth", input.DateOfBirth)
	if err := validator.Err(); err != nil {
		return Key{}, err
	}

	dateOfDeath, _ := civil.ParseDate(input.DateOfDeath)
	dateOfBirth, _ := civil.ParseDate(input.DateOfBirth)
	return Key{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		DateOfDeath: dateOfDeath,
		DateOfBirth: dateOfBirth,
	}, nil
}
