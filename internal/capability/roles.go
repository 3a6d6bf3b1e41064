package capability

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/upb/dak-console/models"
	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultRolesYAML []byte

// RoleDef declares one role in the hierarchy.
type RoleDef struct {
	Name        string   `yaml:"name"`
	ImplicitAll bool     `yaml:"implicit_all"`
	Grants      []string `yaml:"grants"`
}

// Hierarchy is the ordered role table. Index 0 is the most privileged role.
type Hierarchy struct {
	roles  []RoleDef
	rank   map[string]int
	grants map[string]models.PermissionSet
}

type rolesFile struct {
	Roles []RoleDef `yaml:"roles"`
}

// ParseHierarchy decodes a roles YAML document.
func ParseHierarchy(data []byte) (*Hierarchy, error) {
	var f rolesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roles: %w", err)
	}
	return NewHierarchy(f.Roles)
}

// NewHierarchy builds a hierarchy from role definitions in rank order.
// The admin role must be first and must hold implicit-all.
func NewHierarchy(roles []RoleDef) (*Hierarchy, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("role hierarchy is empty")
	}
	h := &Hierarchy{
		roles:  make([]RoleDef, 0, len(roles)),
		rank:   make(map[string]int, len(roles)),
		grants: make(map[string]models.PermissionSet, len(roles)),
	}
	for i, def := range roles {
		name := normalizeRole(def.Name)
		if name == "" {
			return nil, fmt.Errorf("role %d has no name", i)
		}
		if _, dup := h.rank[name]; dup {
			return nil, fmt.Errorf("duplicate role %q", name)
		}
		def.Name = name
		h.roles = append(h.roles, def)
		h.rank[name] = i
		h.grants[name] = models.NewPermissionSet(def.Grants...)
	}
	if h.roles[0].Name != RoleAdmin || !h.roles[0].ImplicitAll {
		return nil, fmt.Errorf("role hierarchy must start with %q holding implicit_all", RoleAdmin)
	}
	return h, nil
}

// DefaultHierarchy returns the embedded role table.
func DefaultHierarchy() *Hierarchy {
	h, err := ParseHierarchy(defaultRolesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded roles.yaml is invalid: %v", err))
	}
	return h
}

// Rank returns the role's position; unknown roles rank below every declared role.
func (h *Hierarchy) Rank(role string) int {
	if r, ok := h.rank[normalizeRole(role)]; ok {
		return r
	}
	return len(h.roles)
}

// Declared reports whether the role appears in the table.
func (h *Hierarchy) Declared(role string) bool {
	_, ok := h.rank[normalizeRole(role)]
	return ok
}

// ImplicitAll reports whether the role bypasses permission checks.
func (h *Hierarchy) ImplicitAll(role string) bool {
	name := normalizeRole(role)
	if name == RoleAdmin {
		return true
	}
	r, ok := h.rank[name]
	return ok && h.roles[r].ImplicitAll
}

// Grants reports whether the role's alias set includes the capability.
func (h *Hierarchy) Grants(role, capability string) bool {
	return h.grants[normalizeRole(role)].Has(capability)
}

// AtLeast reports whether role is ranked at or above min.
func (h *Hierarchy) AtLeast(role, min string) bool {
	return h.Rank(role) <= h.Rank(min)
}

// Names returns role names in rank order.
func (h *Hierarchy) Names() []string {
	names := make([]string, len(h.roles))
	for i, def := range h.roles {
		names[i] = def.Name
	}
	return names
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
