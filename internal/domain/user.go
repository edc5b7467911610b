package domain

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID     string `db:"id"`
	Mobile string `db:"mobile"`
	Name   string `db:"name"`
	Hash   string `db:"password_hash"`
	Role   Role   `db:"role"`
}

func (u *User) Viewer() Viewer { return Viewer{UserID: u.ID, Role: u.Role} }

// Viewer is the authorization context handed to the order services.
type Viewer struct {
	UserID string
	Role   Role
}

func (v Viewer) IsAdmin() bool { return v.Role == RoleAdmin }
