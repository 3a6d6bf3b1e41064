package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// PermissionAll is the wildcard tag granting every capability.
const PermissionAll = "ALL"

// Session represents the authenticated identity of one console client.
type Session struct {
	Token       string        `json:"-"`
	Name        string        `json:"name"`
	Role        string        `json:"role"`
	Email       string        `json:"email"`
	Permissions PermissionSet `json:"permissions"`
}

// Authenticated reports whether the session carries a token and at least
// one of role or permissions. A token alone is a loading state.
func (s *Session) Authenticated() bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.Role != "" || len(s.Permissions) > 0
}

// Clone returns a deep copy so callers never share the permission map.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Permissions = s.Permissions.Clone()
	return &c
}

// NormalizeTag canonicalizes a capability tag for comparison.
func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// PermissionSet is a set of normalized capability tags.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from raw tags, dropping blanks and duplicates.
func NewPermissionSet(tags ...string) PermissionSet {
	set := make(PermissionSet, len(tags))
	for _, tag := range tags {
		set.Add(tag)
	}
	return set
}

// Add inserts a tag after normalization.
func (p PermissionSet) Add(tag string) {
	if n := NormalizeTag(tag); n != "" {
		p[n] = struct{}{}
	}
}

// Has reports whether the set contains tag. A nil set contains nothing.
func (p PermissionSet) Has(tag string) bool {
	if len(p) == 0 {
		return false
	}
	_, ok := p[NormalizeTag(tag)]
	return ok
}

// Tags returns the tags in sorted order.
func (p PermissionSet) Tags() []string {
	tags := make([]string, 0, len(p))
	for tag := range p {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Clone copies the set.
func (p PermissionSet) Clone() PermissionSet {
	if p == nil {
		return nil
	}
	c := make(PermissionSet, len(p))
	for tag := range p {
		c[tag] = struct{}{}
	}
	return c
}

// MarshalJSON encodes the set as a JSON array of strings.
func (p PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Tags())
}

// UnmarshalJSON decodes a JSON array of strings, normalizing each tag.
func (p *PermissionSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*p = NewPermissionSet(tags...)
	return nil
}

// LoginRequest is the credential payload sent to the backend.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token       string   `json:"token"`
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

// Session converts the login response into a session.
func (r *LoginResponse) Session() *Session {
	return &Session{
		Token:       r.Token,
		Role:        r.Role,
		Name:        r.Name,
		Email:       r.Email,
		Permissions: NewPermissionSet(r.Permissions...),
	}
}
