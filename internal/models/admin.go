package models

// AdminProfile describes an administrator and the slice of data they may see.
// A nil restriction is not checked at all.
type AdminProfile struct {
	AdminID       string  `json:"admin_id"`
	Name          string  `json:"name"`
	AssignedGrade *int    `json:"assigned_grade"`
	AssignedClass *string `json:"assigned_class"`
	Region        *string `json:"region"`
}

// Unrestricted reports whether the admin can see every record.
func (a AdminProfile) Unrestricted() bool {
	return a.AssignedGrade == nil && a.AssignedClass == nil && a.Region == nil
}
