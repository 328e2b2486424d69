// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds the two generic helpers the [slices] package lacks.
package slice

// Map returns transform applied to every element. Nil stays nil.
func Map[T, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}
	return result
}

// Filter returns the elements that satisfy keep, in order.
func Filter[T any](input []T, keep func(T) bool) []T {
	var result []T
	for _, v := range input {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result
}
