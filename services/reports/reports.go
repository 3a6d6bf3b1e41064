// Package reports reshapes backend listings into the views the console serves.
package reports

import (
	"sort"
	"strings"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/models"
)

// ReportRow is one dak in the report table with the state of its row actions.
type ReportRow struct {
	models.Dak
	Actions RowActions `json:"actions"`
}

// RowActions carries the gate state of each per-row control.
type RowActions struct {
	Forward capability.GateState `json:"forward"`
	Return  capability.GateState `json:"return"`
}

// DakKey is the in-flight key of a dak.
func DakKey(id string) string {
	return "dak:" + id
}

// BuildReportRows attaches gate states to every dak. A dak with a request in
// flight is shown with its controls disabled.
func BuildReportRows(r *capability.Resolver, s *models.Session, daks []models.Dak, inFlight *capability.InFlight) []ReportRow {
	rows := make([]ReportRow, 0, len(daks))
	for _, d := range daks {
		busy := inFlight != nil && inFlight.Active(DakKey(d.ID))
		rows = append(rows, ReportRow{
			Dak: d,
			Actions: RowActions{
				Forward: r.Gate(s, capability.Forward, d.Forwardable()).Busy(busy),
				Return:  r.Gate(s, capability.Forward, d.Returnable()).Busy(busy),
			},
		})
	}
	return rows
}

// FlattenAdvice returns one row per advice request that was actually made,
// newest first.
func FlattenAdvice(daks []models.Dak) []models.AdviceRow {
	var rows []models.AdviceRow
	for _, d := range daks {
		for _, req := range d.UserAdviceRequests {
			if strings.EqualFold(req.Status, models.AdviceStatusNone) {
				continue
			}
			rows = append(rows, models.AdviceRow{
				DakID:        d.ID,
				Subject:      d.Subject,
				LetterNumber: d.LetterNumber,
				Message:      req.Message,
				Status:       req.Status,
				HeadResponse: req.HeadResponse,
				CreatedAt:    req.CreatedAt,
				UpdatedAt:    req.UpdatedAt,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if rows == nil {
		rows = []models.AdviceRow{}
	}
	return rows
}

// SortHeadsByGroup orders heads by group name, then by name. The input is not modified.
func SortHeadsByGroup(heads []models.User) []models.User {
	out := append([]models.User(nil), heads...)
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := strings.ToLower(out[i].GroupName()), strings.ToLower(out[j].GroupName())
		if gi != gj {
			return gi < gj
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// AssignableUsers returns users ranked below head, the only ones a WAP may target.
func AssignableUsers(h *capability.Hierarchy, users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if h.AtLeast(u.RoleName(), capability.RoleHead) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// VisibleGroups hides the reserved system group from non-administrators.
func VisibleGroups(h *capability.Hierarchy, s *models.Session, groups []models.Group) []models.Group {
	if s != nil && h.ImplicitAll(s.Role) {
		return groups
	}
	out := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		if strings.EqualFold(g.ShortName, models.ReservedGroupShortName) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// VisibleRoles lists the roles the caller may assign. Administrators see all;
// everyone else only sees declared roles ranked below director.
func VisibleRoles(h *capability.Hierarchy, s *models.Session, roles []models.Role) []models.Role {
	if s != nil && h.ImplicitAll(s.Role) {
		return roles
	}
	out := make([]models.Role, 0, len(roles))
	for _, r := range roles {
		if !h.Declared(r.Name) || h.AtLeast(r.Name, capability.RoleDirector) {
			continue
		}
		out = append(out, r)
	}
	return out
}
