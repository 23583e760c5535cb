package auth

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/pki"
)

func generateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := pki.GenerateKey()
	require.NoError(t, err)
	return key
}

func TestIssueAndVerify(t *testing.T) {
	key := generateKey(t)
	orgID := uuid.Must(uuid.NewV7())

	token, err := IssueToken(key, "kid-1", "alice@example.com", orgID, RoleAuthor, time.Hour)
	require.NoError(t, err)

	principal, err := NewJWTVerifier(&key.PublicKey).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", principal.Subject)
	require.Equal(t, orgID, principal.OrgID)
	require.Equal(t, RoleAuthor, principal.Role)
}

func TestIssueToken_UnknownRole(t *testing.T) {
	_, err := IssueToken(generateKey(t), "", "bob", uuid.New(), Role("root"), time.Hour)
	require.ErrorContains(t, err, "unknown role")
}

func TestVerify_Rejects(t *testing.T) {
	key := generateKey(t)
	other := generateKey(t)
	orgID := uuid.Must(uuid.NewV7())

	sign := func(t *testing.T, claims *Claims, method jwt.SigningMethod, signingKey any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(signingKey)
		require.NoError(t, err)
		return s
	}

	valid := func() *Claims {
		return &Claims{
			OrgID: orgID.String(),
			Role:  RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				Issuer:    Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong key",
			token: func(t *testing.T) string {
				return sign(t, valid(), jwt.SigningMethodES256, other)
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return sign(t, c, jwt.SigningMethodES256, key)
			},
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = nil
				return sign(t, c, jwt.SigningMethodES256, key)
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := valid()
				c.Issuer = "someone-else"
				return sign(t, c, jwt.SigningMethodES256, key)
			},
		},
		{
			name: "hmac",
			token: func(t *testing.T) string {
				return sign(t, valid(), jwt.SigningMethodHS256, []byte("secret"))
			},
		},
		{
			name: "bad org",
			token: func(t *testing.T) string {
				c := valid()
				c.OrgID = "acme"
				return sign(t, c, jwt.SigningMethodES256, key)
			},
		},
		{
			name: "unknown role",
			token: func(t *testing.T) string {
				c := valid()
				c.Role = "root"
				return sign(t, c, jwt.SigningMethodES256, key)
			},
		},
	}

	v := NewJWTVerifier(&key.PublicKey)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := v.Verify(tt.token(t))
			require.Error(t, err)
			require.Nil(t, principal)
		})
	}
}

func TestMiddleware(t *testing.T) {
	key := generateKey(t)
	orgID := uuid.Must(uuid.NewV7())

	var seen *Principal
	handler := NewJWTVerifier(&key.PublicKey, "/health").Middleware()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

	token, err := IssueToken(key, "", "alice", orgID, RoleViewer, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name          string
		path          string
		authorization string
		wantStatus    int
		wantPrincipal bool
	}{
		{name: "public path", path: "/health", wantStatus: http.StatusNoContent},
		{name: "missing header", path: "/v1/orgs", wantStatus: http.StatusUnauthorized},
		{name: "basic auth", path: "/v1/orgs", authorization: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", path: "/v1/orgs", authorization: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "valid", path: "/v1/orgs", authorization: "Bearer " + token, wantStatus: http.StatusNoContent, wantPrincipal: true},
		{name: "lower case scheme", path: "/v1/orgs", authorization: "bearer " + token, wantStatus: http.StatusNoContent, wantPrincipal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantPrincipal {
				require.NotNil(t, seen)
				require.Equal(t, orgID, seen.OrgID)
			} else {
				require.Nil(t, seen)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	orgID := uuid.Must(uuid.NewV7())

	require.ErrorIs(t, RequirePermission(context.Background(), orgID, PermVariablesRead), ErrUnauthenticated)

	viewer := WithPrincipal(context.Background(), &Principal{Subject: "v", OrgID: orgID, Role: RoleViewer})
	require.NoError(t, RequirePermission(viewer, orgID, PermVariablesRead))
	require.ErrorIs(t, RequirePermission(viewer, orgID, PermPluginsInstall), ErrPermissionDenied)
	require.ErrorIs(t, RequirePermission(viewer, uuid.Must(uuid.NewV7()), PermVariablesRead), ErrPermissionDenied)

	admin := WithPrincipal(context.Background(), &Principal{Subject: "a", OrgID: orgID, Role: RoleAdmin})
	for _, perm := range RolePermissions[RoleAdmin] {
		require.NoError(t, RequirePermission(admin, orgID, perm))
	}
}

func TestHasPermission(t *testing.T) {
	require.True(t, HasPermission(RoleAuthor, PermFunctionsValidate))
	require.False(t, HasPermission(RoleAuthor, PermPluginsInstall))
	require.False(t, HasPermission(Role("unknown"), PermVariablesRead))
}
