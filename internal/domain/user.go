package domain

// Roles stored in the users table. Only RoleAdmin may open the dashboard.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is a local dashboard account. Marketplace data lives in the record
// backend; this table only gates who may manage it.
type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
