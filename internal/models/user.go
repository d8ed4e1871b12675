package models

import (
	"regexp"
	"strings"
	"time"
)

// Role controls access to administrative endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhoneNumber reports whether s looks like a phone number.
func ValidPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

// NormalizeMemberNumber trims and uppercases a member number.
// Member numbers are stored and compared uppercase everywhere.
func NormalizeMemberNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// EmergencyContact is a next-of-kin record attached to a user.
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	PhoneNumber  string `json:"phoneNumber"`
	Email        string `json:"email,omitempty"`
}

// User represents a registered SACCO member.
type User struct {
	MemberNumber      string             `json:"memberNumber"`
	FirstName         string             `json:"fname"`
	LastName          string             `json:"lname"`
	Email             string             `json:"email,omitempty"`
	PhoneNumber       string             `json:"phoneNumber"`
	DateJoined        time.Time          `json:"dateJoined"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty"`
	Role              Role               `json:"role"`
	IsActive          bool               `json:"isActive"`
	PasswordHash      string             `json:"-"`
	PasswordChangedAt time.Time          `json:"-"`
	LastLogin         *time.Time         `json:"lastLogin,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// FullName returns the display name for the user.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CreateUserRequest is the body for POST /api/users.
type CreateUserRequest struct {
	MemberNumber      string             `json:"memberNumber"`
	FirstName         string             `json:"fname"`
	LastName          string             `json:"lname"`
	Email             string             `json:"email,omitempty"`
	PhoneNumber       string             `json:"phoneNumber"`
	DateJoined        *time.Time         `json:"dateJoined,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty"`
}

// UpdateUserRequest is the body for PUT /api/users/{id}.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName         *string             `json:"fname,omitempty"`
	LastName          *string             `json:"lname,omitempty"`
	Email             *string             `json:"email,omitempty"`
	PhoneNumber       *string             `json:"phoneNumber,omitempty"`
	DateJoined        *time.Time          `json:"dateJoined,omitempty"`
	EmergencyContacts *[]EmergencyContact `json:"emergencyContacts,omitempty"`
	IsActive          *bool               `json:"isActive,omitempty"`
}

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	MemberNumber string `json:"memberNumber"`
	FirstName    string `json:"fname"`
	LastName     string `json:"lname"`
	Email        string `json:"email,omitempty"`
	PhoneNumber  string `json:"phoneNumber"`
	Password     string `json:"password"`
	Role         Role   `json:"role,omitempty"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	MemberNumber string `json:"memberNumber"`
	Password     string `json:"password"`
}

// ChangePasswordRequest is the body for PATCH /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
