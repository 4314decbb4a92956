package user

import "strings"

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

// HasAnyRole matches roles case-insensitively.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, have := range p.Roles {
		have = strings.TrimSpace(have)
		for _, want := range roles {
			if have != "" && strings.EqualFold(have, strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}
