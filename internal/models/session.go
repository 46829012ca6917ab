package models

// Role represents user roles in the system
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// User is the profile persisted next to the token under the "user" key.
type User struct {
	ID       string `json:"id" bson:"id"`
	Username string `json:"username" bson:"username"`
	Role     Role   `json:"role" bson:"role"`
}

// Session is the authenticated identity handed to a view. The zero value is
// a guest.
type Session struct {
	Token string `json:"-"`
	User  *User  `json:"user,omitempty"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Role returns the session role, guest when nobody is signed in.
func (s Session) Role() Role {
	if s.User == nil || s.User.Role == "" {
		return RoleGuest
	}
	return s.User.Role
}

// IsAuthenticated reports whether a user is attached to the session.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// IsAdmin reports whether the session may edit and delete cars.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role() == RoleAdmin
}

// Actions checked by HasPermission.
const (
	ActionViewCars = "view_cars"
	ActionBookCar  = "book_car"
)

// HasPermission checks if the session has permission for a specific action
func (s Session) HasPermission(action string) bool {
	switch s.Role() {
	case RoleAdmin:
		return true
	case RoleUser:
		return action == ActionViewCars || action == ActionBookCar
	case RoleGuest:
		return action == ActionViewCars
	default:
		return false
	}
}

// SessionFromClaims builds a session for a validated token.
func SessionFromClaims(token string, claims *Claims) Session {
	if claims == nil {
		return Session{}
	}
	return Session{
		Token: token,
		User: &User{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		},
	}
}
