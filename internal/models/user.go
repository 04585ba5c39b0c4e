package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleParent  UserRole = "parent"
	RoleStudent UserRole = "student"
)

// roleTiers orders roles by authority for RequireRole checks.
var roleTiers = map[UserRole]int{
	RoleStudent: 1,
	RoleParent:  2,
	RoleTeacher: 3,
	RoleAdmin:   4,
}

func NormalizeRole(role UserRole) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(string(role))))
}

func IsValidRole(role UserRole) bool {
	_, ok := roleTiers[role]
	return ok
}

// HasAtLeast reports whether role carries at least the authority of required.
func HasAtLeast(role, required UserRole) bool {
	tier, ok := roleTiers[role]
	requiredTier, reqOK := roleTiers[required]
	return ok && reqOK && tier >= requiredTier
}

type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	// Student-specific.
	GradeLevel string `json:"grade_level,omitempty"`

	// Teacher-specific.
	Subjects []string `json:"subjects,omitempty"`
	Classes  []string `json:"classes,omitempty"`
	Workload int      `json:"workload,omitempty"`

	// Parent-specific.
	Children                []int64         `json:"children,omitempty"`
	NotificationPreferences map[string]bool `json:"notification_preferences,omitempty"`

	// Admin-specific.
	Permissions []string `json:"permissions,omitempty"`
}

// DefaultAdminPermissions are granted to every new admin account.
var DefaultAdminPermissions = []string{"manage_users", "generate_reports", "system_settings"}

// Teaches reports whether the user is a teacher of the given subject.
func (u User) Teaches(subject string) bool {
	if u.Role != RoleTeacher {
		return false
	}
	for _, s := range u.Subjects {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}

// HasChild reports whether the student is registered as this parent's child.
func (u User) HasChild(studentID int64) bool {
	for _, id := range u.Children {
		if id == studentID {
			return true
		}
	}
	return false
}

// WantsAlert checks a parent notification preference, defaulting to enabled
// when the preference has never been set.
func (u User) WantsAlert(preference string) bool {
	if u.NotificationPreferences == nil {
		return true
	}
	enabled, ok := u.NotificationPreferences[preference]
	if !ok {
		return true
	}
	return enabled
}
