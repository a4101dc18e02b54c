package api

import "strconv"

// User is the stored user record.
//
// Token is empty while the user is logged out. It is written only by the
// login and logout operations of the users service.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Token        string
}

// Identifier returns the textual form of the user's ID, the value that
// tokens encode.
func (u *User) Identifier() string {
	return strconv.FormatInt(u.ID, 10)
}

// LoggedIn reports whether the user currently holds a token.
func (u *User) LoggedIn() bool {
	return u.Token != ""
}

// View returns the public projection of the user.
func (u *User) View() *UserView {
	return &UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserView is the user representation returned to clients. It never
// carries the password hash or the token.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// RegisterUserRequest is the payload of POST /api/users/register.
// ID must be absent: identifiers are assigned by the store.
type RegisterUserRequest struct {
	ID       *int64 `json:"id,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// LoginRequest is the payload of POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LogoutRequest is the payload of POST /api/users/logout. Token names the
// session to invalidate.
type LogoutRequest struct {
	Username string `json:"username,omitempty"`
	Token    string `json:"token"`
}

// UpdateUserRequest is the payload of PATCH and PUT /api/users/{id}.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// ParseIdentifier parses the textual form of a user ID. Only positive
// decimal integers in canonical form (no sign, no leading zeros) are valid.
func ParseIdentifier(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != s {
		return 0, false
	}
	return id, true
}
