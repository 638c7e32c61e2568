package models

// User is an operator account, per spec.md §6's
// `user(id int pk, username text unique, hashed_password text)`.
type User struct {
	ID             int    `json:"id" db:"id"`
	Username       string `json:"username" db:"username"`
	HashedPassword string `json:"-" db:"hashed_password"`
}
