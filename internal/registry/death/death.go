// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package death manages certificates of death.

A death record is a single row holding the decedent, the age breakdown, the
cause-of-death chain, the certifier, disposal permits and the informant.
Duplicate identity is the decedent's first and last name with both the date of
birth and the date of death.

Age at death is stored either as whole years or, when age_under_1 is set, as
months, days, hours and minutes. The flag decides which fields are read.
*/
package death

import (
	"fmt"
	"strings"
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
	CivilStatuses   = []string{"Single", "Married", "Widowed", "Divorced", "Annulled"}
	YesNo           = []string{"Yes", "No"}
	CorpseDisposals = []string{"Burial", "Cremation", "Other"}
)

// # Domain Entities

// Age is the age-at-death breakdown.
type Age struct {
	Years   *int `json:"age_years"`
	Months  *int `json:"age_months"`
	Days    *int `json:"age_days"`
	Hours   *int `json:"age_hours"`
	Minutes *int `json:"age_minutes"`
	Under1  bool `json:"age_under_1"`
}

// Summary renders the authoritative fields, e.g. "3 months, 2 days" or "74 years".
func (age Age) Summary() string {
	if age.Under1 {
		var parts []string
		for _, part := range []struct {
			value *int
			unit  string
		}{
			{age.Months, "months"}, {age.Days, "days"}, {age.Hours, "hours"}, {age.Minutes, "minutes"},
		} {
			if part.value != nil && *part.value > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", *part.value, part.unit))
			}
		}
		if len(parts) == 0 {
			return "Under 1 year"
		}
		return strings.Join(parts, ", ")
	}

	if age.Years != nil && *age.Years > 0 {
		return fmt.Sprintf("%d years", *age.Years)
	}
	return "Not specified"
}

// Record is a death registration.
type Record struct {
	ID             int64  `json:"id"`
	RegistryNumber string `json:"registry_number"`

	FirstName   string     `json:"first_name"`
	MiddleName  *string    `json:"middle_name"`
	LastName    string     `json:"last_name"`
	Sex         string     `json:"sex"`
	CivilStatus string     `json:"civil_status"`
	DateOfDeath civil.Date `json:"date_of_death"`
	DateOfBirth civil.Date `json:"date_of_birth"`
	Age

	PlaceOfDeath     string  `json:"place_of_death"`
	Religion         *string `json:"religion"`
	Citizenship      string  `json:"citizenship"`
	Residence        string  `json:"residence"`
	Occupation       *string `json:"occupation"`
	FatherName       string  `json:"father_name"`
	MotherMaidenName string  `json:"mother_maiden_name"`

	ImmediateCause             string  `json:"immediate_cause"`
	AntecedentCause            *string `json:"antecedent_cause"`
	UnderlyingCause            *string `json:"underlying_cause"`
	OtherSignificantConditions *string `json:"other_significant_conditions"`
	MaternalCondition          *string `json:"maternal_condition"`
	MannerOfDeath              *string `json:"manner_of_death"`
	PlaceOfOccurrence          *string `json:"place_of_occurrence"`
	Autopsy                    *string `json:"autopsy"`

	Attendant      string      `json:"attendant"`
	AttendantOther *string     `json:"attendant_other"`
	AttendedFrom   *civil.Date `json:"attended_from"`
	AttendedTo     *civil.Date `json:"attended_to"`

	CertifierSignature *string     `json:"certifier_signature"`
	CertifierName      string      `json:"certifier_name"`
	CertifierTitle     *string     `json:"certifier_title"`
	CertifierAddress   *string     `json:"certifier_address"`
	CertifierDate      *civil.Date `json:"certifier_date"`
	AttendedDeceased   *string     `json:"attended_deceased"`
	DeathOccurredTime  *string     `json:"death_occurred_time"`

	CorpseDisposal       *string     `json:"corpse_disposal"`
	BurialPermitNumber   *string     `json:"burial_permit_number"`
	BurialPermitDate     *civil.Date `json:"burial_permit_date"`
	TransferPermitNumber *string     `json:"transfer_permit_number"`
	TransferPermitDate   *civil.Date `json:"transfer_permit_date"`
	CemeteryName         *string     `json:"cemetery_name"`
	CemeteryAddress      *string     `json:"cemetery_address"`

	InformantSignature    *string     `json:"informant_signature"`
	InformantName         string      `json:"informant_name"`
	InformantRelationship string      `json:"informant_relationship"`
	InformantAddress      *string     `json:"informant_address"`
	InformantDate         *civil.Date `json:"informant_date"`

	DateRegistered civil.Date    `json:"date_registered"`
	EncodedBy      sec.Principal `json:"-"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Display fields, filled by [Record.Decorate].
	Encoder                 directory.Profile `json:"encoder"`
	FullName                string            `json:"full_name"`
	AgeAtDeath              string            `json:"age_at_death"`
	FormattedDateOfDeath    string            `json:"formatted_date_of_death"`
	FormattedDateOfBirth    string            `json:"formatted_date_of_birth"`
	FormattedDateRegistered string            `json:"formatted_date_registered"`
}

// Match is the projection returned by similar-record and quick searches.
type Match struct {
	ID             int64      `json:"id"`
	RegistryNumber string     `json:"registry_number"`
	FirstName      string     `json:"first_name"`
	MiddleName     *string    `json:"middle_name"`
	LastName       string     `json:"last_name"`
	DateOfDeath    civil.Date `json:"date_of_death"`
	DateOfBirth    civil.Date `json:"date_of_birth"`
	Sex            string     `json:"sex"`
}

// Key is the duplicate identity of a death.
type Key struct {
	FirstName   string
	LastName    string
	DateOfDeath civil.Date
	DateOfBirth civil.Date
}

func (key Key) lockKey() string {
	return dedupe.Key(key.FirstName, key.LastName, key.DateOfDeath.String(), key.DateOfBirth.String())
}

// CheckedFields echoes the identity that was checked.
func (key Key) CheckedFields() map[string]string {
	return map[string]string{
		"first_name":    key.FirstName,
		"last_name":     key.LastName,
		"date_of_death": key.DateOfDeath.String(),
		"date_of_birth": key.DateOfBirth.String(),
	}
}

// KeyOf returns the identity of a record.
func KeyOf(record *Record) Key {
	return Key{
		FirstName:   record.FirstName,
		LastName:    record.LastName,
		DateOfDeath: record.DateOfDeath,
		DateOfBirth: record.DateOfBirth,
	}
}

// Statistics counts active records. ThisMonth is by creation time.
type Statistics struct {
	TotalRecords int `json:"total_records"`
	Male         int `json:"male"`
	Female       int `json:"female"`
	ThisMonth    int `json:"this_month"`
}

// Decorate fills the display fields.
func (record *Record) Decorate(encoder directory.Profile) {
	record.Encoder = encoder
	record.FullName = registry.FullName(record.FirstName, registry.Deref(record.MiddleName), record.LastName)
	record.AgeAtDeath = record.Age.Summary()
	record.FormattedDateOfDeath = registry.LongDate(record.DateOfDeath)
	record.FormattedDateOfBirth = registry.LongDate(record.DateOfBirth)
	record.FormattedDateRegistered = registry.LongDate(record.DateRegistered)
}
