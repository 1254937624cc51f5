package utils

import (
	"encoding/json"
	"strconv"
)

// ToStringSlice keeps the string elements of a loosely typed JSON array
func ToStringSlice(v any) []string {
	slice, ok := v.([]any)
	if !ok {
		return nil
	}
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// FirstString returns the first key of m holding a non-empty string
func FirstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// StringOr returns FirstString or def
func StringOr(m map[string]any, def string, keys ...string) string {
	if s, ok := FirstString(m, keys...); ok {
		return s
	}
	return def
}

// Int64 converts a JSON number (float64, json.Number or numeric string) to int64
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Float64 converts a JSON number or numeric string to float64
func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
