// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package convert renders stored values for display.
package convert

import "fmt"

const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// FileSize renders a byte count with two decimals in the largest unit that
// keeps the value at or above one: "512 Bytes", "1.50 KB", "10.00 MB".
func FileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf("%.2f MB", float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf("%d Bytes", bytes)
	}
}
