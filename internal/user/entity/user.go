package entity

import "database/sql"

// User is a row of the `users` table. Email is the natural key.
// Code is NULL once a token supersedes it; Token is empty until issued.
type User struct {
	ID    int64         `db:"id" json:"id"`
	Email string        `db:"email" json:"email"`
	Code  sql.NullInt64 `db:"code" json:"-"`
	Token string        `db:"token" json:"-"`
}

// HasCode reports whether a one-time code is currently outstanding.
func (u *User) HasCode() bool {
	return u.Code.Valid
}

// CredentialState names where the email is in the sign-in flow.
type CredentialState string

const (
	StateNoCredential CredentialState = "no_credential"
	StateCodeIssued   CredentialState = "code_issued"
	StateTokenIssued  CredentialState = "token_issued"
)

// State derives the credential state from the stored fields.
func (u *User) State() CredentialState {
	switch {
	case u == nil:
		return StateNoCredential
	case u.Token != "":
		return StateTokenIssued
	case u.Code.Valid:
		return StateCodeIssued
	default:
		return StateNoCredential
	}
}
