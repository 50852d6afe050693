package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

const (
	scopeSeparator       = " • "
	unrestrictedScopeMsg = "All data"
)

// FilterByScope keeps the records the admin is allowed to see. Every present
// restriction must match; a region restriction is ignored when the table has
// no region column.
func FilterByScope(table models.StudentTable, admin models.AdminProfile) models.StudentTable {
	checkRegion := admin.Region != nil && table.HasColumn(models.FieldRegion)

	rows := make([]models.StudentRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		if admin.AssignedGrade != nil && row.Grade != *admin.AssignedGrade {
			continue
		}
		if admin.AssignedClass != nil && row.Class != *admin.AssignedClass {
			continue
		}
		if checkRegion && row.Region != *admin.Region {
			continue
		}
		rows = append(rows, row)
	}

	return models.StudentTable{Columns: slices.Clone(table.Columns), Rows: rows}
}

// ScopeDescription renders the admin's restrictions for display.
func ScopeDescription(admin models.AdminProfile) string {
	parts := make([]string, 0, 3)
	if admin.AssignedGrade != nil {
		parts = append(parts, fmt.Sprintf("Grade %d", *admin.AssignedGrade))
	}
	if admin.AssignedClass != nil && *admin.AssignedClass != "" {
		parts = append(parts, fmt.Sprintf("Class %s", *admin.AssignedClass))
	}
	if admin.Region != nil && *admin.Region != "" {
		parts = append(parts, fmt.Sprintf("%s Region", *admin.Region))
	}
	if len(parts) == 0 {
		return unrestrictedScopeMsg
	}
	return strings.Join(parts, scopeSeparator)
}

// ValidateAccess checks a requested grade/class against the admin's
// restrictions. Nil request values are not checked.
func ValidateAccess(admin models.AdminProfile, requestedGrade *int, requestedClass *string) (bool, string) {
	if admin.AssignedGrade != nil && requestedGrade != nil && *admin.AssignedGrade != *requestedGrade {
		return false, fmt.Sprintf("Access denied: you can only access Grade %d data", *admin.AssignedGrade)
	}
	if admin.AssignedClass != nil && requestedClass != nil && *admin.AssignedClass != *requestedClass {
		return false, fmt.Sprintf("Access denied: you can only access Class %s data", *admin.AssignedClass)
	}
	return true, ""
}
