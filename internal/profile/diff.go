package profile

import (
	"fmt"
	"strings"
)

// FieldChange records one changed profile field for the audit description.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Diff compares the editable fields of two profiles. The result feeds the
// audit description only; it is not used for conflict detection.
func Diff(old, updated *Profile) []FieldChange {
	var changes []FieldChange
	compare := func(field, before, after string) {
		if before != after {
			changes = append(changes, FieldChange{Field: field, Old: before, New: after})
		}
	}
	compare("name", old.Name, updated.Name)
	compare("email", old.Email, updated.Email)
	compare("phone", old.Phone, updated.Phone)
	return changes
}

// Describe renders a human-readable summary of the changes.
func Describe(changes []FieldChange) string {
	if len(changes) == 0 {
		return "no fields changed"
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = fmt.Sprintf("%s: %q -> %q", c.Field, c.Old, c.New)
	}
	return "Profile updated (" + strings.Join(parts, "; ") + ")"
}

// FieldNames lists the changed field names.
func FieldNames(changes []FieldChange) []string {
	names := make([]string, len(changes))
	for i, c := range changes {
		names[i] = c.Field
	}
	return names
}
