package auth

import "errors"

// ErrDenied is returned when no authorizer accepts a secret.
var ErrDenied = errors.New("access denied")

// Authorizer accepts or rejects an admin secret.
type Authorizer interface {
	Authorize(secret string) error
}

// AdminToken accepts signed admin tokens in place of the shared password.
type AdminToken struct {
	SigningKey string
	Issuer     string
}

// Authorize parses secret as a JWT and requires the admin role.
func (a AdminToken) Authorize(secret string) error {
	claims, err := Parse(secret, a.SigningKey, a.Issuer)
	if err != nil {
		return err
	}
	if claims.Role != RoleAdmin {
		return ErrDenied
	}
	return nil
}

// AnyOf accepts a secret when at least one member accepts it.
type AnyOf []Authorizer

func (c AnyOf) Authorize(secret string) error {
	for _, a := range c {
		if a != nil && a.Authorize(secret) == nil {
			return nil
		}
	}
	return ErrDenied
}
