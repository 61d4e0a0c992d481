// Package ptr provides helpers for getting pointers to literal values.
package ptr

import "time"

// String returns a pointer to the provided string
func String(s string) *string {
	return &s
}

// Bool returns a pointer to the provided bool
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to the provided int
func Int(i int) *int {
	return &i
}

// Int64 returns a pointer to the provided int64
func Int64(i int64) *int64 {
	return &i
}

// Float64 returns a pointer to the provided float64
func Float64(f float64) *float64 {
	return &f
}

// Time returns a pointer to the provided time
func Time(t time.Time) *time.Time {
	return &t
}
