package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingUser     = errors.New("token has no user claim")
	errMissingUsername = errors.New("token user has no username")
)

// Permissions are the per-user capabilities granted by the server.
type Permissions struct {
	Admin    bool `json:"admin"`
	Execute  bool `json:"execute"`
	Create   bool `json:"create"`
	Rename   bool `json:"rename"`
	Modify   bool `json:"modify"`
	Delete   bool `json:"delete"`
	Share    bool `json:"share"`
	Download bool `json:"download"`
}

// Identity is the authenticated user as carried in the token's user claim.
// Only Decode produces one.
type Identity struct {
	ID           uint        `json:"id"`
	Username     string      `json:"username"`
	Locale       string      `json:"locale"`
	ViewMode     string      `json:"viewMode"`
	SingleClick  bool        `json:"singleClick"`
	Perm         Permissions `json:"perm"`
	Commands     []string    `json:"commands"`
	LockPassword bool        `json:"lockPassword"`
	HideDotfiles bool        `json:"hideDotfiles"`
	DateFormat   bool        `json:"dateFormat"`

	// Token lifetime, copied from the registered claims. Zero when absent.
	ExpiresAt time.Time `json:"-"`
	IssuedAt  time.Time `json:"-"`
}

// Claims is the token payload issued by the server.
type Claims struct {
	User *Identity `json:"user"`
	jwt.RegisteredClaims
}

// Identity returns a copy of the user claim with the token lifetime filled in.
func (c *Claims) Identity() *Identity {
	id := *c.User
	id.Commands = append([]string(nil), c.User.Commands...)

	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}

	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}

	return &id
}

// Decode parses the token payload without verifying the signature; the
// client holds no key and the server remains the authority on validity.
// Expiry is not enforced here. A payload without a user object carrying a
// username is rejected.
func Decode(token string) (*Claims, error) {
	var claims Claims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, &TokenDecodeError{Err: err}
	}

	if claims.User == nil {
		return nil, &TokenDecodeError{Err: errMissingUser}
	}

	if claims.User.Username == "" {
		return nil, &TokenDecodeError{Err: errMissingUsername}
	}

	return &claims, nil
}
