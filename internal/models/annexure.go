package models

import "strings"

// DynamicRecord is one row from a schema-evolving table, keyed by column name.
// Lazily added columns are plain text; base columns keep their native types.
type DynamicRecord map[string]interface{}

// String returns the named column coerced to a string, or "" when absent.
func (r DynamicRecord) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

// StatusSignals extracts the status-bearing fields of an annexure record.
// A field is a signal when its name contains one of the recognised markers.
func (r DynamicRecord) StatusSignals() map[string]string {
	signals := make(map[string]string)
	for column, value := range r {
		if !IsStatusSignal(column) {
			continue
		}
		if value == nil {
			continue
		}
		signals[column] = r.String(column)
	}
	return signals
}

// IsStatusSignal reports whether a column name carries a verification status.
func IsStatusSignal(column string) bool {
	name := strings.ToLower(column)
	return strings.Contains(name, "verification_status") ||
		strings.Contains(name, "color_code") ||
		strings.Contains(name, "color_status")
}

// UpsertSpec describes one dynamic-table upsert keyed by case id.
type UpsertSpec struct {
	CaseID     string
	BranchID   string
	CustomerID string
	TrackerID  *int64
	Fields     map[string]string
}
