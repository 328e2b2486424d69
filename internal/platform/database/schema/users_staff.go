package schema

// UsersStaffTable represents the 'users.staff' table
type UsersStaffTable struct {
	Table            string
	ID               string
	Email            string
	Password         string
	FullName         string
	ContactNumber    string
	Address          string
	Avatar           string
	IsActive         string
	DeactivateReason string
	DeactivatedAt    string
	DeactivatedBy    string
	LastLoginAt      string
	LastLoginAgent   string
	CreatedBy        string
	CreatedAt        string
	UpdatedAt        string
}

// UsersStaff is the schema definition for users.staff
var UsersStaff = UsersStaffTable{
	Table:            "users.staff",
	ID:               "id",
	Email:            "email",
	Password:         "password",
	FullName:         "full_name",
	ContactNumber:    "contact_number",
	Address:          "address",
	Avatar:           "avatar",
	IsActive:         "is_active",
	DeactivateReason: "deactivate_reason",
	DeactivatedAt:    "deactivated_at",
	DeactivatedBy:    "deactivated_by",
	LastLoginAt:      "last_login_at",
	LastLoginAgent:   "last_login_agent",
	CreatedBy:        "created_by",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}

// Columns returns all standard column names
func (t UsersStaffTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FullName, t.ContactNumber, t.Address, t.Avatar,
		t.IsActive, t.DeactivateReason, t.DeactivatedAt, t.DeactivatedBy,
		t.LastLoginAt, t.LastLoginAgent, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
