package domain

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether s is an accepted role value
func ValidRole(s string) bool {
	return s == string(RoleUser) || s == string(RoleAdmin)
}

// Status represents the lifecycle state of a borrow transaction
type Status string

const (
	// StatusPending is a borrow request waiting for admin approval
	StatusPending Status = "Pending"
	// StatusBorrowed is an approved, active loan
	StatusBorrowed Status = "Borrowed"
	// StatusPendingReturn is a return request waiting for admin approval
	StatusPendingReturn Status = "PendingReturn"
	// StatusReturned is the terminal state; the copy is back in stock
	StatusReturned Status = "Returned"
)

// IsOpen reports whether a transaction in this status counts as an
// open request for the duplicate-borrow guard
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusBorrowed
}

// Identity is the authenticated caller as seen by the access policy
type Identity struct {
	UserID   uint
	Username string
	Role     Role
}

// IsAdmin reports whether the identity carries the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
