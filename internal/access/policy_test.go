package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownRole(t *testing.T) {
	assert.True(t, KnownRole(RoleAdmin))
	assert.True(t, KnownRole(RoleDispatcher))
	assert.True(t, KnownRole(RoleResponder))
	assert.True(t, KnownRole(RolePublic))
	assert.False(t, KnownRole(Role("supervisor")))
	assert.False(t, KnownRole(Role("")))
}

func TestHas_CapabilityTable(t *testing.T) {
	cases := []struct {
		name string
		role Role
		cap  Capability
		want bool
	}{
		{"admin deletes incidents", RoleAdmin, CapDeleteIncident, true},
		{"dispatcher does not delete incidents", RoleDispatcher, CapDeleteIncident, false},
		{"dispatcher manages registry", RoleDispatcher, CapManageRegistry, true},
		{"responder does not manage registry", RoleResponder, CapManageRegistry, false},
		{"responder updates incidents", RoleResponder, CapUpdateIncident, true},
		{"responder sees all incidents", RoleResponder, CapViewAllIncidents, true},
		{"public creates incidents", RolePublic, CapCreateIncident, true},
		{"public does not update incidents", RolePublic, CapUpdateIncident, false},
		{"public does not see all incidents", RolePublic, CapViewAllIncidents, false},
		{"public does not create notifications", RolePublic, CapCreateNotification, false},
		{"unknown role has nothing", Role("ghost"), CapCreateIncident, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Has(tc.role, tc.cap))
		})
	}
}

func TestCanViewIncident(t *testing.T) {
	seven, eight := int64(7), int64(8)

	// Роли с view_all видят любые записи, включая анонимные
	assert.True(t, CanViewIncident(Identity{Role: RoleAdmin}, nil))
	assert.True(t, CanViewIncident(Identity{Role: RoleDispatcher}, &seven))
	assert.True(t, CanViewIncident(Identity{Role: RoleResponder}, &eight))

	// public видит только собственные записи
	assert.True(t, CanViewIncident(Identity{Role: RolePublic, UserID: &seven}, &seven))
	assert.False(t, CanViewIncident(Identity{Role: RolePublic, UserID: &seven}, &eight))

	// Анонимная запись и анонимный вызывающий не сопоставляются
	assert.False(t, CanViewIncident(Identity{Role: RolePublic, UserID: &seven}, nil))
	assert.False(t, CanViewIncident(Identity{Role: RolePublic}, &seven))
	assert.False(t, CanViewIncident(Identity{Role: RolePublic}, nil))
}
