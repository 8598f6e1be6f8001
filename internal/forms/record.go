package forms

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one stored form document, already normalised by the store:
// the document key is under "id" and dates are time.Time.
type Record map[string]any

// String renders scalar values as text; missing and nil values are "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Time(field string) (time.Time, bool) {
	switch v := r[field].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	default:
		return time.Time{}, false
	}
}

func (r Record) Bool(field string) bool {
	v, _ := r[field].(bool)
	return v
}

// Query is a moderation list request.
type Query struct {
	// Status filters by exact match when non-empty.
	Status string
	// Limit caps the result size; zero means no cap.
	Limit int64
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Stats are dashboard counts for one kind.
type Stats struct {
	Total    int64 `json:"total"`
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"thisWeek"`
	// Pending counts records still in the kind's default status.
	Pending int64 `json:"pending"`
}
