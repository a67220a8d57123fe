// Package user manages the staff accounts that operate the copy desk.
package user

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	dErrors "copydesk/pkg/domain-errors"
)

type Role string

const (
	RoleClerk          Role = "clerk"
	RoleSuperintendent Role = "superintendent"
	RoleXeroxOperator  Role = "xerox_operator"
	RoleAdmin          Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClerk, RoleSuperintendent, RoleXeroxOperator, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown role %q", s))
	}
}

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	FullName     string
	Initials     string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InitialsOf derives register initials from a full name, e.g.
// "Anita B. Clerk" becomes "ABC". Stage remarks and receipts use these.
func InitialsOf(fullName string) string {
	var initials []rune
	for _, part := range strings.Fields(fullName) {
		r := []rune(part)[0]
		if unicode.IsLetter(r) {
			initials = append(initials, unicode.ToUpper(r))
		}
	}
	return string(initials)
}
