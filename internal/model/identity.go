// Package model defines domain entities for the application.
package model

import "slices"

// Group constants carried in identity tokens.
const (
	GroupAdmin  = "admin"
	GroupReader = "reader"
)

// Identity is the verified caller decoded from a bearer token.
type Identity struct {
	SubjectID   string
	DisplayName string
	Groups      []string
}

// HasGroup reports whether the identity belongs to the given group.
func (i *Identity) HasGroup(group string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Groups, group)
}

// IsAdmin returns true if the identity holds the admin group.
func (i *Identity) IsAdmin() bool {
	return i.HasGroup(GroupAdmin)
}

// Valid checks the identity invariants: a subject and at least one group.
func (i *Identity) Valid() bool {
	return i != nil && i.SubjectID != "" && len(i.Groups) > 0
}
