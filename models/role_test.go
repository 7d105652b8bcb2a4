package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Manager ")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)
	assert.False(t, Role("owner").Valid())
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManageUsers, true},
		{RoleAdmin, CapViewAll, true},
		{RoleManager, CapLeadProjects, true},
		{RoleManager, CapRunScan, true},
		{RoleManager, CapManageUsers, false},
		{RoleManager, CapViewAll, false},
		{RoleUser, CapUpdateTaskStatus, true},
		{RoleUser, CapManageTasks, false},
		{RoleUser, CapRecordExpenses, false},
		{Role("ghost"), CapUpdateTaskStatus, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Can(tt.cap), "%s/%d", tt.role, tt.cap)
	}
}

func TestIdentity_Require(t *testing.T) {
	err := Identity{Role: RoleUser}.Require(CapManageProjects)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.NoError(t, Identity{Role: RoleAdmin}.Require(CapManageProjects))
}

func TestBlockedBy(t *testing.T) {
	err := BlockedBy("task has incomplete dependencies", []string{"Design"})
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, []string{"Design"}, BlockingOf(err))
	assert.Nil(t, BlockingOf(errors.New("plain")))
}
