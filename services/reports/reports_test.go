package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/models"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func session(role string, perms ...string) *models.Session {
	return &models.Session{Token: "t", Role: role, Permissions: models.NewPermissionSet(perms...)}
}

func TestBuildReportRows(t *testing.T) {
	r := capability.Default()
	daks := []models.Dak{
		{ID: "d1", Status: models.DakStatusUploaded},
		{ID: "d2", Status: models.DakStatusForwarded, IsReturned: true},
		{ID: "d3", Status: models.DakStatusUploaded},
	}
	inFlight := capability.NewInFlight()
	require.True(t, inFlight.Begin(DakKey("d3")))

	t.Run("head with FORWARD", func(t *testing.T) {
		rows := BuildReportRows(r, session("head", "FORWARD"), daks, inFlight)
		require.Len(t, rows, 3)

		assert.Equal(t, capability.GateState{Visible: true, Enabled: true}, rows[0].Actions.Forward)
		assert.Equal(t, capability.GateState{Visible: true, Enabled: true}, rows[0].Actions.Return)

		assert.False(t, rows[1].Actions.Forward.Visible, "already forwarded")
		assert.False(t, rows[1].Actions.Return.Visible, "already returned")

		assert.Equal(t, capability.GateState{Visible: true, Enabled: false}, rows[2].Actions.Forward)
	})

	t.Run("user without FORWARD sees no actions", func(t *testing.T) {
		rows := BuildReportRows(r, session("user", "READ"), daks, nil)
		for _, row := range rows {
			assert.False(t, row.Actions.Forward.Visible)
			assert.False(t, row.Actions.Return.Visible)
		}
	})
}

func TestFlattenAdvice(t *testing.T) {
	daks := []models.Dak{
		{
			ID: "d1", Subject: "Budget",
			UserAdviceRequests: []models.AdviceRequest{
				{Message: "old", Status: "pending", CreatedAt: base},
				{Message: "never", Status: "NA", CreatedAt: base.Add(5 * time.Hour)},
			},
		},
		{ID: "d2", Subject: "Leave"},
		{
			ID: "d3", Subject: "Tender",
			UserAdviceRequests: []models.AdviceRequest{
				{Message: "new", Status: "responded", HeadResponse: "ok", CreatedAt: base.Add(2 * time.Hour)},
			},
		},
	}

	rows := FlattenAdvice(daks)
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0].Message)
	assert.Equal(t, "d3", rows[0].DakID)
	assert.Equal(t, "ok", rows[0].HeadResponse)
	assert.Equal(t, "old", rows[1].Message)
	assert.Equal(t, "Budget", rows[1].Subject)

	assert.NotNil(t, FlattenAdvice(nil))
	assert.Empty(t, FlattenAdvice(nil))
}

func TestSortHeadsByGroup(t *testing.T) {
	heads := []models.User{
		{Name: "Zed", Group: &models.Group{Name: "Finance"}},
		{Name: "Amy", Group: &models.Group{Name: "admin"}},
		{Name: "Bob", Group: &models.Group{Name: "Finance"}},
		{Name: "Nil"},
	}

	sorted := SortHeadsByGroup(heads)
	names := make([]string, len(sorted))
	for i, u := range sorted {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"Nil", "Amy", "Bob", "Zed"}, names)
	assert.Equal(t, "Zed", heads[0].Name, "input untouched")
}

func TestAssignableUsers(t *testing.T) {
	h := capability.DefaultHierarchy()
	users := []models.User{
		{Name: "a", Role: &models.Role{Name: "admin"}},
		{Name: "d", Role: &models.Role{Name: "director"}},
		{Name: "h", Role: &models.Role{Name: "Head"}},
		{Name: "x", Role: &models.Role{Name: "distributor"}},
		{Name: "u", Role: &models.Role{Name: "user"}},
		{Name: "none"},
	}

	got := AssignableUsers(h, users)
	names := make([]string, len(got))
	for i, u := range got {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"x", "u", "none"}, names)
}

func TestVisibleGroups(t *testing.T) {
	h := capability.DefaultHierarchy()
	groups := []models.Group{{ShortName: "sa"}, {ShortName: "fin"}}

	assert.Len(t, VisibleGroups(h, session("admin"), groups), 2)
	assert.Equal(t, []models.Group{{ShortName: "fin"}}, VisibleGroups(h, session("director"), groups))
	assert.Len(t, VisibleGroups(h, nil, groups), 1)
}

func TestVisibleRoles(t *testing.T) {
	h := capability.DefaultHierarchy()
	roles := []models.Role{{Name: "admin"}, {Name: "director"}, {Name: "head"}, {Name: "user"}}

	assert.Len(t, VisibleRoles(h, session("admin"), roles), 4)
	assert.Equal(t, []models.Role{{Name: "head"}, {Name: "user"}}, VisibleRoles(h, session("director", "VIEW_HEADS"), roles))

	t.Run("undeclared backend roles only reach admins", func(t *testing.T) {
		withUnknown := append([]models.Role{{Name: "superuser"}}, roles...)

		assert.Len(t, VisibleRoles(h, session("admin"), withUnknown), 5)
		assert.Equal(t, []models.Role{{Name: "head"}, {Name: "user"}}, VisibleRoles(h, session("director", "VIEW_HEADS"), withUnknown))
		assert.Equal(t, []models.Role{{Name: "head"}, {Name: "user"}}, VisibleRoles(h, session("head", "MANAGE_USERS"), withUnknown))
	})
}
