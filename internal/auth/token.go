package auth

import (
	"crypto/ecdsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of admin API tokens.
const Issuer = "formulary"

// Claims are the claims of an admin API token.
type Claims struct {
	OrgID string `json:"org"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed ES256 token for subject acting on orgID.
func IssueToken(key *ecdsa.PrivateKey, kid, subject string, orgID uuid.UUID, role Role, ttl time.Duration) (string, error) {
	if _, ok := RolePermissions[role]; !ok {
		return "", errors.New("unknown role: " + string(role))
	}

	now := time.Now()
	claims := &Claims{
		OrgID: orgID.String(),
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	return token.SignedString(key)
}
