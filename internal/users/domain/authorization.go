package domain

// RequireActiveAdmin is the gate for every admin-only use case. actor is
// nil when the acting id did not resolve to a user.
func RequireActiveAdmin(actor *User) error {
	switch {
	case actor == nil:
		return NewError(ErrAuthorization, "acting administrator not found")
	case !actor.IsAdmin():
		return NewError(ErrAuthorization, "only administrators can perform this action")
	case !actor.IsActive():
		return NewError(ErrAuthorization, "administrator account is inactive")
	}
	return nil
}
