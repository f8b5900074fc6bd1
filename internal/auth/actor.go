// Package auth models the authenticated identity behind every request
// and the JWT session tokens that carry it.
package auth

import "github.com/settlewise/case-service/internal/model"

// Actor is the authenticated identity performing an operation. Role
// comes from the verified session token, never from request payloads.
type Actor struct {
	ID   string
	Name string
	Role model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}
