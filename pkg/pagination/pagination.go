// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is requested via the "page" and
// "per_page" query parameters and how the resulting metadata is delivered in
// the response envelope.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// MaxPerPage is the upper bound for items per page.
	MaxPerPage = 1000
	// MaxPage bounds the page number so Offset cannot overflow.
	MaxPage = 1_000_000
)

// Params holds the parsed page and page size from a request's query string.
type Params struct {
	Page    int
	PerPage int
}

// Offset returns the SQL OFFSET value derived from Page and PerPage.
func (p Params) Offset() int {
	if p.Page <= 1 || p.PerPage <= 0 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * min(p.PerPage, MaxPerPage)
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// NewMeta constructs pagination metadata for a response.
// An empty result still reports one (empty) last page.
func NewMeta(params Params, total int) Meta {
	lastPage := 1
	if params.PerPage > 0 && total > 0 {
		lastPage = (total + params.PerPage - 1) / params.PerPage
	}

	return Meta{
		CurrentPage: params.Page,
		LastPage:    lastPage,
		PerPage:     params.PerPage,
		Total:       total,
	}
}

// FromRequest parses "page" and "per_page" query parameters.
//
// # Clamping
//
// Invalid or non-positive values fall back to [DefaultPage] and
// defaultPerPage; pages above [MaxPage] and page sizes above [MaxPerPage]
// are clamped. A page past the end yields an empty list, never an error.
func FromRequest(r *http.Request, defaultPerPage int) Params {
	page := parseIntParam(r, "page", DefaultPage)
	perPage := parseIntParam(r, "per_page", defaultPerPage)

	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}

	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Params{Page: page, PerPage: perPage}
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
