package ports

import (
	"context"

	"github.com/avelara/coachctl/internal/domain"
)

type Credentials struct {
	Email    string
	Password string
}

// AuthAPI is the authentication slice of the coaching backend. The bearer
// token is passed explicitly: the session manager owns it, adapters do not.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	CurrentUser(ctx context.Context, token string) (domain.UserSnapshot, error)
	UpdateUser(ctx context.Context, token string, patch domain.UserPatch) (domain.UserSnapshot, error)
}
