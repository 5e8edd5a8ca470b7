package models

import (
	"fmt"

	"github.com/google/uuid"
)

// SignupIdentity is a throwaway account identity for signup flows.
type SignupIdentity struct {
	Name  string
	Email string
}

// NewSignupIdentity generates a unique identity under domain.
func NewSignupIdentity(domain string) SignupIdentity {
	token := uuid.New().String()[:8]
	return SignupIdentity{
		Name:  "shopcheck-" + token,
		Email: fmt.Sprintf("shopcheck+%s@%s", token, domain),
	}
}
