package schema

// UsersAdminTable represents the 'users.admins' table
type UsersAdminTable struct {
	Table     string
	ID        string
	Username  string
	Email     string
	Password  string
	FullName  string
	Position  string
	CreatedAt string
	UpdatedAt string
}

// UsersAdmin is the schema definition for users.admins
var UsersAdmin = UsersAdminTable{
	Table:     "users.admins",
	ID:        "id",
	Username:  "username",
	Email:     "email",
	Password:  "password",
	FullName:  "full_name",
	Position:  "position",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// Columns returns all standard column names
func (t UsersAdminTable) Columns() []string {
	return []string{t.ID, t.Username, t.Email, t.Password, t.FullName, t.Position, t.CreatedAt, t.UpdatedAt}
}
