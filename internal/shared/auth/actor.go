// Package auth carries the authenticated caller into services.
package auth

// Actor the user a service call is made for
type Actor struct {
	ID    string
	Name  string
	Admin bool
}

// CanAccess admins see every aggregate, clients only their own.
func (a Actor) CanAccess(ownerID string) bool {
	return a.Admin || (a.ID != "" && a.ID == ownerID)
}
