package capability

import (
	"github.com/upb/dak-console/models"
)

// Resolver evaluates capabilities against a role hierarchy and panel table.
// It holds no per-session state and is safe for concurrent use.
type Resolver struct {
	roles  *Hierarchy
	panels []Panel
}

// NewResolver creates a resolver. Nil arguments fall back to the embedded tables.
func NewResolver(roles *Hierarchy, panels []Panel) *Resolver {
	if roles == nil {
		roles = DefaultHierarchy()
	}
	if panels == nil {
		panels = DefaultPanels()
	}
	return &Resolver{roles: roles, panels: panels}
}

var defaultResolver = NewResolver(nil, nil)

// Default returns the resolver built from the embedded tables.
func Default() *Resolver {
	return defaultResolver
}

// Can reports whether the session may use capability, using the embedded tables.
func Can(s *models.Session, capability string) bool {
	return defaultResolver.Can(s, capability)
}

// Can reports whether the session may use capability.
//
// Administrators pass unconditionally. Otherwise the session must hold ALL,
// the exact tag, or belong to a role whose alias set grants the tag.
// Comparison is case-insensitive whole-tag equality. An absent session or
// blank capability is denied.
func (r *Resolver) Can(s *models.Session, capability string) bool {
	if s == nil || models.NormalizeTag(capability) == "" {
		return false
	}
	if r.roles.ImplicitAll(s.Role) {
		return true
	}
	if s.Permissions.Has(models.PermissionAll) || s.Permissions.Has(capability) {
		return true
	}
	return r.roles.Grants(s.Role, capability)
}

// CanAny reports whether the session may use at least one capability.
func (r *Resolver) CanAny(s *models.Session, capabilities ...string) bool {
	for _, c := range capabilities {
		if r.Can(s, c) {
			return true
		}
	}
	return false
}

// Roles returns the hierarchy the resolver evaluates against.
func (r *Resolver) Roles() *Hierarchy {
	return r.roles
}
