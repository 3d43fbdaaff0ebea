package domain

// AccessPolicy evaluates whether an actor may perform an action on a
// resource. All ownership and role checks in the system go through
// this one evaluator instead of being reimplemented per endpoint.
type AccessPolicy struct{}

// NewAccessPolicy creates the access policy evaluator
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// CanActForUser reports whether the actor may issue a borrow/return
// request on behalf of ownerID. Owners act for themselves; admins act
// for anyone.
func (p *AccessPolicy) CanActForUser(actor Identity, ownerID uint) error {
	if actor.UserID == ownerID || actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanViewHistory reports whether the actor may view ownerID's
// transaction history.
func (p *AccessPolicy) CanViewHistory(actor Identity, ownerID uint) error {
	return p.CanActForUser(actor, ownerID)
}

// RequireAdmin reports whether the actor holds the admin role.
// Catalog mutation, approvals, stats and user management all require it.
func (p *AccessPolicy) RequireAdmin(actor Identity) error {
	if actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanDeleteUser enforces the self-preservation guard: an admin may
// delete any account except their own.
func (p *AccessPolicy) CanDeleteUser(actor Identity, targetID uint) error {
	if err := p.RequireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == targetID {
		return ErrCannotDeleteSelf
	}
	return nil
}
