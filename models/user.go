package models

// UserRef is a lightweight reference to a user embedded in other records
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Role is a backend role record
type Role struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Group is an organisational unit heads belong to
type Group struct {
	ID        string `json:"_id"`
	FullName  string `json:"fullName"`
	ShortName string `json:"shortName"`
	Name      string `json:"name,omitempty"`
}

// ReservedGroupShortName is the system group only administrators may see
const ReservedGroupShortName = "sa"

// User is a console-managed account
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  *Role  `json:"role,omitempty"`
	Group *Group `json:"group,omitempty"`
}

// RoleName returns the user's role name or empty string
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// GroupName returns the user's group name or empty string
func (u *User) GroupName() string {
	if u.Group == nil {
		return ""
	}
	if u.Group.Name != "" {
		return u.Group.Name
	}
	return u.Group.FullName
}

// Permission is a grantable capability record
type Permission struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
}

// CreateUserRequest creates a new account
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	RoleID   string `json:"roleId" validate:"required"`
	GroupID  string `json:"groupId,omitempty"`
}

// AssignRoleRequest changes a user's role
type AssignRoleRequest struct {
	UserID string `json:"userId" validate:"required"`
	RoleID string `json:"roleId" validate:"required"`
}

// UserPermissionsRequest replaces a user's permission list
type UserPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// UpdateGroupRequest edits a head's group
type UpdateGroupRequest struct {
	UserID    string `json:"userId" validate:"required"`
	FullName  string `json:"fullName" validate:"required"`
	ShortName string `json:"shortName" validate:"required"`
}

// UpdateProfileRequest edits the caller's own profile
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,nefield=OldPassword"`
}
