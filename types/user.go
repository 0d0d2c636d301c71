package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the 24 character hex identifier of the user.
	ID string `json:"id" db:"id" bson:"_id"`

	// Name is the unique login name. Matching is exact and case-sensitive.
	Name string `json:"name" db:"name" bson:"name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash" bson:"passwordHash"`

	// AccessToken is the opaque bearer credential issued at registration.
	// It does not expire and is never rotated.
	AccessToken string `json:"accessToken" db:"access_token" bson:"accessToken"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// Principal is the identity resolved from a presented access token.
type Principal struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Credentials is returned by a successful login.
type Credentials struct {
	UserName    string `json:"userName"`
	AccessToken string `json:"accessToken"`
}
