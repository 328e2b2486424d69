// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package report aggregates the active civil records into statistics, trends and
distributions, and exports them as CSV or XLSX.

Every query is read-only. Counts that bucket by date use the record's principal
date (birth, marriage or death), not its registration date.
*/
package report

import (
	"context"
	"time"

	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

// # Results

// Statistics are the headline counters of the reports page.
type Statistics struct {
	TotalBirths      int `json:"total_births"`
	TotalMarriages   int `json:"total_marriages"`
	TotalDeaths      int `json:"total_deaths"`
	MonthlyBirths    int `json:"monthly_births"`
	MonthlyMarriages int `json:"monthly_marriages"`
	MonthlyDeaths    int `json:"monthly_deaths"`
	TotalRecords     int `json:"total_records"`
}

// TrendPoint is one bucket of a registration trend series.
type TrendPoint struct {
	Type   string `json:"type"`
	Period string `json:"period"`
	Year   int    `json:"year"`
	Month  int    `json:"month,omitempty"`
	Count  int    `json:"count"`
}

// Bucket is a raw count for a year, or a year and month.
type Bucket struct {
	Year  int
	Month int
	Count int
}

// GenderCount counts birth records by sex.
type GenderCount struct {
	Sex   string `json:"sex"`
	Count int    `json:"count"`
	Type  string `json:"type"`
}

// MonthSummary counts each record type within one month.
type MonthSummary struct {
	Month     int `json:"month"`
	Births    int `json:"births"`
	Marriages int `json:"marriages"`
	Deaths    int `json:"deaths"`
	Total     int `json:"total"`
}

// TypeShare is one slice of the record-type chart.
type TypeShare struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// colors are the chart colours of each record type.
var colors = map[registry.Type]string{
	registry.TypeBirth:    "#018181",
	registry.TypeMarriage: "#e83e8c",
	registry.TypeDeath:    "#6c757d",
}

// Recent is a recently registered record of any type.
type Recent struct {
	Type           string     `json:"type"`
	ID             int64      `json:"id"`
	RegistryNumber string     `json:"registry_number"`
	Name           string     `json:"name"`
	DateRegistered civil.Date `json:"date_registered"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Revenue totals the certificates issued in an interval.
type Revenue struct {
	Certificates int     `json:"certificates"`
	Amount       float64 `json:"amount"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalBirths         int      `json:"total_births"`
	TotalMarriages      int      `json:"total_marriages"`
	TotalDeaths         int      `json:"total_deaths"`
	TotalRecords        int      `json:"total_records"`
	ThisMonthBirths     int      `json:"this_month_births"`
	ThisMonthMarriages  int      `json:"this_month_marriages"`
	ThisMonthDeaths     int      `json:"this_month_deaths"`
	RecentRegistrations []Recent `json:"recent_registrations"`
	TodayCertificates   int      `json:"today_certificates"`
	TodayRevenue        float64  `json:"today_revenue"`
}

// # Export

// Columns returns the export header of a record type.
func Columns(recordType registry.Type) []string {
	switch recordType {
	case registry.TypeBirth:
		return []string{
			"Record Type", "Registry Number", "Child First Name", "Child Middle Name", "Child Last Name",
			"Sex", "Date of Birth", "Time of Birth", "Place of Birth", "Birth Address", "Type of Birth",
			"Birth Weight", "Mother First Name", "Mother Last Name", "Father First Name", "Father Last Name",
			"Date Registered",
		}
	case registry.TypeMarriage:
		return []string{
			"Record Type", "Registry Number", "Husband First Name", "Husband Middle Name", "Husband Last Name",
			"Wife First Name", "Wife Middle Name", "Wife Last Name", "Date of Marriage", "Place of Marriage",
			"Date Registered",
		}
	case registry.TypeDeath:
		return []string{
			"Record Type", "Registry Number", "Deceased First Name", "Deceased Middle Name", "Deceased Last Name",
			"Sex", "Date of Death", "Place of Death", "Cause of Death", "Date Registered",
		}
	}
	return nil
}

// Section is the exported rows of one record type. Every row has one cell per
// header column.
type Section struct {
	Type    registry.Type
	Headers []string
	Rows    [][]string
}

// Export is the content of one export request, one section per record type.
type Export struct {
	Filename string
	Sections []Section
}

// Empty reports whether no section has rows.
func (export Export) Empty() bool {
	for _, section := range export.Sections {
		if len(section.Rows) > 0 {
			return false
		}
	}
	return true
}

// # Contracts

type Repository interface {
	// Count returns the number of active records of a type.
	Count(ctx context.Context, recordType registry.Type) (int, error)

	// CountBetween counts active records whose principal date is in [from, to].
	CountBetween(ctx context.Context, recordType registry.Type, from, to civil.Date) (int, error)

	// CountCreated counts active records created in [from, to).
	CountCreated(ctx context.Context, recordType registry.Type, from, to time.Time) (int, error)

	// Monthly returns the non-empty months of a year, in order.
	Monthly(ctx context.Context, recordType registry.Type, year int) ([]Bucket, error)

	// Yearly returns the non-empty years, in order.
	Yearly(ctx context.Context, recordType registry.Type) ([]Bucket, error)

	Gender(ctx context.Context) ([]GenderCount, error)

	// Recent returns the latest active registrations across all types.
	Recent(ctx context.Context, limit int) ([]Recent, error)

	// Revenue totals the certificates logged in [from, to).
	Revenue(ctx context.Context, from, to time.Time) (Revenue, error)

	// ExportRows returns the active records of a type whose principal date
	// falls in year, formatted as [Columns] cells.
	ExportRows(ctx context.Context, recordType registry.Type, year int) ([][]string, error)
}
