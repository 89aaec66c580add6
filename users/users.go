package users

// RoleType represents a user role within the school system
type RoleType string

const (
	RoleAdmin   RoleType = "admin"
	RoleTeacher RoleType = "teacher"
	RoleStudent RoleType = "student"
	RoleParent  RoleType = "parent"
)

// User is the identity record returned by the API and cached locally
// alongside the token pair.
type User struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Role      RoleType `json:"role"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

// FullName returns the display name, falling back to the username when
// no first/last name has been set.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// IsStaff reports whether the user can manage rosters and attendance.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleTeacher
}
