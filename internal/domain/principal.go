package domain

import (
	"strconv"
	"strings"
)

// Principal is the authenticated caller as handed over by the identity layer.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) HasRole(role string) bool { return p.Role == role }

// ParseUserID checks that an identity reference is a positive integer id.
func ParseUserID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidOwner
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, ErrInvalidOwner
	}
	return uint(v), nil
}
