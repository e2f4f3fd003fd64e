package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"docflow/internal/model"
)

func userWith(role string, ceiling string) *model.User {
	u := &model.User{Role: role}
	if ceiling != "" {
		u.MaxApprovalAmount = decimal.NewNullDecimal(dec(ceiling))
	}
	return u
}

func TestAuthorityPolicy_Ceiling(t *testing.T) {
	p := DefaultAuthorityPolicy()

	assert.Nil(t, p.Ceiling(userWith(model.RoleAdmin, "1000")), "admin is never capped")
	assert.Nil(t, p.Ceiling(userWith(model.RoleManager, "")), "null ceiling is unlimited")

	c := p.Ceiling(userWith(model.RoleSupervisor, "100000000"))
	if assert.NotNil(t, c) {
		assert.True(t, c.Equal(dec("100000000")))
	}
}

func TestAuthorityPolicy_Authorize(t *testing.T) {
	p := DefaultAuthorityPolicy()

	tests := []struct {
		name    string
		user    *model.User
		amount  string
		wantErr error
		msg     string
	}{
		{name: "admin any amount", user: userWith(model.RoleAdmin, "10"), amount: "999999999"},
		{name: "manager unlimited", user: userWith(model.RoleManager, ""), amount: "500000000"},
		{name: "supervisor at ceiling", user: userWith(model.RoleSupervisor, "100000000"), amount: "100000000"},
		{
			name:    "supervisor above ceiling",
			user:    userWith(model.RoleSupervisor, "100000000"),
			amount:  "150000000",
			wantErr: ErrForbidden,
			msg:     "100,000,000",
		},
		{name: "employee cannot approve", user: userWith(model.RoleEmployee, ""), amount: "1", wantErr: ErrForbidden, msg: "employee"},
		{name: "unknown role cannot approve", user: userWith("auditor", ""), amount: "1", wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Authorize(tt.user, dec(tt.amount))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAuthorityPolicy_RequiresApproval(t *testing.T) {
	p := DefaultAuthorityPolicy()

	assert.True(t, p.RequiresApproval(userWith(model.RoleEmployee, "10000000"), dec("15000000")))
	assert.False(t, p.RequiresApproval(userWith(model.RoleEmployee, "10000000"), dec("10000000")))
	assert.False(t, p.RequiresApproval(userWith(model.RoleEmployee, ""), dec("15000000")))
	assert.True(t, p.RequiresApproval(userWith(model.RoleAdmin, "1"), dec("15000000")))
	assert.False(t, p.RequiresApproval(userWith(model.RoleAdmin, ""), dec("15000000")))
}
