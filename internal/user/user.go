// Package user defines the account record shared by storage, the service layer
// and the privacy projection.
package user

import "time"

// User is a registered account.
//
// Email and PasswordHash have no JSON form on purpose: a User must be passed
// through privacy.Project before it reaches a response.
type User struct {
	// ID is the serial identifier stored in sessions and reset tokens.
	ID int64 `json:"id"`

	Username string `json:"username"`

	Email string `json:"-"`

	// PasswordHash is an argon2id PHC string produced by the password package.
	PasswordHash string `json:"-"`

	ProfilePictureURL string    `json:"profilePictureUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
