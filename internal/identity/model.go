package identity

import "time"

// RoleCustomer is the tier every registration starts in.
const RoleCustomer = "CUSTOMER"

// User represents a registered customer. HashedPIN stays nil until the user
// completes the OTP-gated PIN setup.
type User struct {
	ID             string
	Username       string
	HashedPassword []byte
	HashedPIN      []byte
	FullName       string
	Email          string
	Role           string
	CreatedAt      time.Time
}

// HasPIN reports whether the user has configured a transaction PIN.
func (u User) HasPIN() bool {
	return len(u.HashedPIN) > 0
}

// Registration is the data collected when a new user signs up.
type Registration struct {
	Username string
	Password string
	FullName string
	Email    string
}
