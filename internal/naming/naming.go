// Package naming centralizes normalization and validation of dynamic table
// and column identifiers. Every component that names a schema-evolving table
// goes through this package before any DDL is composed.
package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLength matches the PostgreSQL identifier limit.
const MaxIdentifierLength = 63

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9_]`)
	identifier   = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// reserved names never usable as dynamic tables.
var reserved = map[string]struct{}{
	"cases":                {},
	"holidays":             {},
	"weekend_configs":      {},
	"service_form_schemas": {},
	"case_reminders":       {},
	"branch_users":         {},
	"refresh_tokens":       {},
	"audit_logs":           {},
	"pg_catalog":           {},
	"information_schema":   {},
}

// Normalize converts a service-configured table name into a usable SQL
// identifier: lowercase, spaces and hyphens to underscores, anything else
// stripped, digit-leading names prefixed with an underscore.
func Normalize(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = invalidChars.ReplaceAllString(name, "")
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	if len(name) > MaxIdentifierLength {
		name = name[:MaxIdentifierLength]
	}
	return name
}

// Validate rejects identifiers that are unsafe to interpolate into DDL.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", name, MaxIdentifierLength)
	}
	if !identifier.MatchString(name) {
		return fmt.Errorf("identifier %q contains disallowed characters", name)
	}
	return nil
}

// ValidateTable applies Validate plus the reserved-name check.
func ValidateTable(name string) error {
	if err := Validate(name); err != nil {
		return err
	}
	if _, ok := reserved[name]; ok {
		return fmt.Errorf("table name %q is reserved", name)
	}
	return nil
}

// NormalizeAndValidateTable is the single entry point used before any
// dynamic-table DDL or DML composition.
func NormalizeAndValidateTable(raw string) (string, error) {
	name := Normalize(raw)
	if err := ValidateTable(name); err != nil {
		return "", err
	}
	return name, nil
}
