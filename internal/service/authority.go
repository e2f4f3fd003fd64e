package service

import (
	"github.com/shopspring/decimal"

	"docflow/internal/model"
)

// Capability is what a role may do in the approval workflow.
type Capability struct {
	CanApprove bool
	// Unlimited ignores the user's own ceiling.
	Unlimited bool
}

// AuthorityPolicy is the single place that answers "who may approve what".
type AuthorityPolicy struct {
	roles map[string]Capability
}

func NewAuthorityPolicy(roles map[string]Capability) AuthorityPolicy {
	return AuthorityPolicy{roles: roles}
}

// DefaultAuthorityPolicy lets admins approve anything and managers and
// supervisors approve up to their own ceiling.
func DefaultAuthorityPolicy() AuthorityPolicy {
	return NewAuthorityPolicy(map[string]Capability{
		model.RoleAdmin:      {CanApprove: true, Unlimited: true},
		model.RoleManager:    {CanApprove: true},
		model.RoleSupervisor: {CanApprove: true},
		model.RoleEmployee:   {},
		model.RoleUser:       {},
	})
}

func (p AuthorityPolicy) Capability(role string) Capability {
	return p.roles[role]
}

// Ceiling is the largest finalAmount the user may approve, or nil for no limit.
func (p AuthorityPolicy) Ceiling(u *model.User) *decimal.Decimal {
	if p.Capability(u.Role).Unlimited || !u.MaxApprovalAmount.Valid {
		return nil
	}
	c := u.MaxApprovalAmount.Decimal
	return &c
}

// CanApprove is the amount check: true when there is no ceiling or amount fits under it.
func (p AuthorityPolicy) CanApprove(u *model.User, amount decimal.Decimal) bool {
	ceiling := p.Ceiling(u)
	return ceiling == nil || amount.LessThanOrEqual(*ceiling)
}

// RequiresApproval reports whether a document of amount created by creator
// must go through the approval workflow. Only the creator's own ceiling
// counts here; role capabilities apply when approving.
func (p AuthorityPolicy) RequiresApproval(creator *model.User, amount decimal.Decimal) bool {
	return creator.MaxApprovalAmount.Valid && amount.GreaterThan(creator.MaxApprovalAmount.Decimal)
}

// Authorize checks both the role capability and the amount ceiling.
func (p AuthorityPolicy) Authorize(u *model.User, amount decimal.Decimal) error {
	if !p.Capability(u.Role).CanApprove {
		return forbidden("Role %q is not allowed to approve or reject documents", u.Role)
	}
	if !p.CanApprove(u, amount) {
		return forbidden("Document amount %s exceeds your approval limit of %s",
			formatAmount(amount), formatAmount(*p.Ceiling(u)))
	}
	return nil
}
