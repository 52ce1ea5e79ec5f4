package core

import (
	"math"
	"strconv"
)

// Record is a raw node or edge as supplied by the caller. The engine keeps
// records in the shape they arrived in and only reads the keys it knows.
type Record map[string]any

// ID returns the record's identity, or "" when it has none.
// Numeric ids are formatted without a fractional part.
func (r Record) ID() string {
	return r.String("id")
}

// SetID assigns the record's identity.
func (r Record) SetID(id string) {
	r["id"] = id
}

// String returns the value at key as a string.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Float returns the value at key as a float64. Missing and non-numeric
// values report NaN and false.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return math.NaN(), false
	}
}

// Has reports whether key is present, even with a nil value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}
