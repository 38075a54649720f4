package domain

import "time"

// Role is the coarse permission tier carried by a session token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AdminUsername is the fixed identity of the administrator. It is not a User
// record and can never be registered.
const AdminUsername = "admin"

// Landing pages the client is sent to after each flow.
const (
	RedirectLogin     = "/login"
	RedirectDashboard = "/dashboard"
	RedirectAdminHome = "/admin/home"
)

// User models a registered account. Identity fields never change after
// creation.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subject is the identity a token is minted for.
type Subject struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

// AdminSubject returns the fixed identity used for administrator sessions.
func AdminSubject() Subject {
	return Subject{ID: AdminUsername, Username: AdminUsername, Role: RoleAdmin}
}

// UserSubject returns the identity used for a regular user session.
func UserSubject(u *User) Subject {
	return Subject{ID: u.ID, Username: u.Username, Email: u.Email, Role: RoleUser}
}

// Claims are the verified facts extracted from a session token.
type Claims struct {
	Subject   string    `json:"sub"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}
