package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/guitarshop/internal/model"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name      string
		principal model.Principal
		ownerID   string
		want      bool
	}{
		{
			name:      "owner",
			principal: model.Principal{SubjectID: "u1"},
			ownerID:   "u1",
			want:      true,
		},
		{
			name:      "stranger",
			principal: model.Principal{SubjectID: "u2", Roles: []model.Role{}},
			ownerID:   "u1",
			want:      false,
		},
		{
			name:      "admin not owner",
			principal: model.Principal{SubjectID: "u2", Roles: []model.Role{model.RoleAdmin}},
			ownerID:   "u1",
			want:      true,
		},
		{
			name:      "unknown role is ignored",
			principal: model.Principal{SubjectID: "u2", Roles: []model.Role{"SUPPORT"}},
			ownerID:   "u1",
			want:      false,
		},
		{
			name:      "empty subject never matches",
			principal: model.Principal{},
			ownerID:   "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.principal, tt.ownerID))
		})
	}
}
