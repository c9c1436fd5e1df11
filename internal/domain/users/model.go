package users

import "time"

// User es una cuenta del sistema. PasswordHash nunca se serializa.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	IsActive     bool
	CreatedAt    time.Time
	CreatedBy    string
}

// Patch: nil = no tocar.
type Patch struct {
	FullName *string
	Email    *string
	IsActive *bool
}

func (p Patch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.IsActive == nil
}

func (p Patch) Apply(u User) User {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	return u
}
