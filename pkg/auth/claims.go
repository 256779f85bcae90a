// Package auth issues and verifies the tenant credentials every caller must
// present. The tenant claim is extracted exactly once per request; row-level
// filtering downstream consumes the claim from the context instead of
// re-deriving it per row.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Role string

const (
	// RoleMember is an ordinary tenant-scoped caller.
	RoleMember Role = "member"
	// RoleService is the backend-to-database trust boundary: unrestricted,
	// used only by internal maintenance operations.
	RoleService Role = "service"
	// RoleSuperadmin is a documented cross-tenant bypass for human operators.
	RoleSuperadmin Role = "superadmin"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
)

// TenantClaims is the verified content of a caller's credential.
type TenantClaims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Access is the per-request authorization state derived from TenantClaims.
type Access struct {
	TenantID uuid.UUID
	Role     Role
}

// Unrestricted reports whether the caller may cross tenant boundaries.
func (a Access) Unrestricted() bool {
	return a.Role == RoleService || a.Role == RoleSuperadmin
}

type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenManager(signingKey string, ttl time.Duration) *TokenManager {
	return &TokenManager{signingKey: []byte(signingKey), ttl: ttl}
}

func (m *TokenManager) Issue(tenantID uuid.UUID, role Role) (string, error) {
	switch role {
	case RoleMember, RoleService, RoleSuperadmin:
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, role)
	}
	if role == RoleMember && tenantID == uuid.Nil {
		return "", fmt.Errorf("%w: member credential requires a tenant", ErrInvalidCredential)
	}

	claims := TenantClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if tenantID != uuid.Nil {
		claims.TenantID = tenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Verify parses the credential and maps it to an Access. Any failure is a
// hard deny: malformed tokens, wrong signing method, expired claims and
// member tokens without a tenant all reject.
func (m *TokenManager) Verify(tokenString string) (Access, error) {
	if tokenString == "" {
		return Access{}, ErrMissingCredential
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&TenantClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.signingKey, nil
		},
	)
	if err != nil {
		return Access{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return Access{}, ErrInvalidCredential
	}

	access := Access{Role: Role(claims.Role)}
	switch access.Role {
	case RoleMember, RoleService, RoleSuperadmin:
	default:
		return Access{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, claims.Role)
	}

	if claims.TenantID != "" {
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return Access{}, fmt.Errorf("%w: bad tenant claim: %v", ErrInvalidCredential, err)
		}
		access.TenantID = tenantID
	}
	if access.Role == RoleMember && access.TenantID == uuid.Nil {
		return Access{}, fmt.Errorf("%w: member credential without tenant", ErrInvalidCredential)
	}

	return access, nil
}
