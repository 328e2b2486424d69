// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package certificate logs paid certificate issuances against civil records.

A log row is append-only: it names the record (type and id), the certificate
number, the recipient and the payment (amount, official receipt number and
date). Certificate numbers are unique across every record type.
*/
package certificate

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

const resource = "Certificate issuance"

// ErrNumberTaken is returned by [Repository.Create] when the certificate number
// has already been logged.
var ErrNumberTaken = errors.New("certificate: number already issued")

// # Domain Entities

// Log is one issued certificate.
type Log struct {
	ID                int64         `json:"id"`
	CertificateType   registry.Type `json:"certificate_type"`
	RecordID          int64         `json:"record_id"`
	CertificateNumber string        `json:"certificate_number"`
	IssuedTo          string        `json:"issued_to"`
	AmountPaid        float64       `json:"amount_paid"`
	ORNumber          string        `json:"or_number"`
	DatePaid          civil.Date    `json:"date_paid"`
	Purpose           *string       `json:"purpose"`
	IssuedBy          sec.Principal `json:"issued_by"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// IssuerName is filled by the service.
	IssuerName string `json:"issuer_name"`
}

// Timeframe bounds the statistics query.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
)

// Bounds returns the half-open interval [from, to) of the timeframe around now,
// in now's location. Weeks start on Monday.
func (timeframe Timeframe) Bounds(now time.Time) (from, to time.Time) {
	year, month, day := now.Date()
	location := now.Location()
	today := time.Date(year, month, day, 0, 0, 0, 0, location)

	switch timeframe {
	case TimeframeDay:
		return today, today.AddDate(0, 0, 1)
	case TimeframeWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case TimeframeYear:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, location)
		return start, start.AddDate(1, 0, 0)
	default:
		start := time.Date(year, month, 1, 0, 0, 0, 0, location)
		return start, start.AddDate(0, 1, 0)
	}
}

// Statistic aggregates the certificates of one type issued on one day.
type Statistic struct {
	CertificateType registry.Type `json:"certificate_type"`
	TotalIssued     int           `json:"total_issued"`
	TotalRevenue    float64       `json:"total_revenue"`
	IssueDate       civil.Date    `json:"issue_date"`
}

// # Contracts

// Filter narrows the issuance history. Zero values do not filter.
type Filter struct {
	CertificateType registry.Type
	DateFrom        *civil.Date
	DateTo          *civil.Date
	Search          string
}

type Repository interface {
	// List returns a page of logs, newest first, and the total match count.
	List(ctx context.Context, filter Filter, limit, offset int) ([]Log, int, error)

	Create(ctx context.Context, log *Log) error

	// Statistics groups the logs created in [from, to) by type and local issue
	// date.
	Statistics(ctx context.Context, from, to time.Time) ([]Statistic, error)
}

// Records reports whether an active civil record exists.
type Records interface {
	Active(ctx context.Context, recordType registry.Type, id int64) (bool, error)
}
