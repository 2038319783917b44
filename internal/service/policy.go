package service

import "github.com/allevo/cloud-store/internal/model"

// Operation is the kind of access requested on a cart.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
)

func (o Operation) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthorized
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthorized:
		return "unauthorized"
	default:
		return "forbidden"
	}
}

// Decide returns whether identity may perform op on the cart of owner.
// Ownership is checked before role, so a non-owner is always reported as
// unauthorized even when it also lacks the admin group.
func Decide(identity *model.Identity, owner string, op Operation) Decision {
	if identity == nil || identity.SubjectID == "" || identity.SubjectID != owner {
		return DenyUnauthorized
	}
	switch op {
	case OpRead:
		return Allow
	case OpWrite:
		if identity.IsAdmin() {
			return Allow
		}
		return DenyForbidden
	default:
		return DenyForbidden
	}
}

// denial converts a negative decision into the matching service error.
func denial(d Decision, op Operation) error {
	switch d {
	case DenyUnauthorized:
		if op == OpWrite {
			return NewError(KindUnauthorized, "Not allowed to update cart belonging to another user")
		}
		return NewError(KindUnauthorized, "Not allowed to read cart belonging to another user")
	case DenyForbidden:
		return NewError(KindForbidden, "Only admin can add product to own cart")
	default:
		return nil
	}
}
