package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/logging"
)

func TestHashPassword(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secretpw")
	require.NoError(t, err)
	assert.NotEqual(t, "secretpw", hash)
	assert.True(t, hasher.Compare("secretpw", hash))
	assert.False(t, hasher.Compare("secretpx", hash))

	other, err := hasher.Hash("secretpw")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")

	differentPassword, err := hasher.Hash("another-password")
	require.NoError(t, err)
	assert.False(t, hasher.Compare("secretpw", differentPassword))
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash("short")
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
	assert.Equal(t, "Password must be 8 characters or longer.", apierror.Message(err))
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))
}

func TestComparePasswordMalformedHash(t *testing.T) {
	assert.False(t, ComparePassword("secretpw", "not-a-bcrypt-hash"))
	assert.False(t, ComparePassword("secretpw", ""))
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewHasher(99).cost)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", 0)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestIssueEmptyUser(t *testing.T) {
	_, err := NewIssuer("test-secret", 0).Issue("")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	token, err := NewIssuer("other-secret", 0).Issue("user-1")
	require.NoError(t, err)

	_, err = NewIssuer("test-secret", 0).Verify(token)
	require.Error(t, err)
	assert.True(t, apierror.IsAuth(err))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	issuer := NewIssuer("test-secret", 0)
	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, err := NewIssuer("test-secret", 0).Issue("user-2")
	require.NoError(t, err)
	parts[1] = strings.Split(forged, ".")[1]

	_, err = issuer.Verify(strings.Join(parts, "."))
	assert.True(t, apierror.IsAuth(err))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	_, err := NewIssuer("test-secret", 0).Verify("not.a.token")
	assert.True(t, apierror.IsAuth(err))
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("test-secret", 0).Verify(token)
	assert.True(t, apierror.IsAuth(err))
}

func TestVerifyExpiry(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return start }

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.Equal(t, "token expired", apierror.Message(err))
}

func TestUserIDWithoutToken(t *testing.T) {
	_, err := UserID(context.Background())
	require.Error(t, err)
	assert.True(t, apierror.IsAuth(err))
	assert.Equal(t, "not authenticated", apierror.Message(err))
	assert.Empty(t, OptionalUserID(context.Background()))
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("test-secret", 0)
	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	var seen Identity
	handler := Middleware(issuer, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ForContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantUserID string
		wantErr    bool
	}{
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantUserID: "user-1",
		},
		{
			name:       "lower-case scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantUserID: "user-1",
		},
		{
			name:       "token cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) },
			wantUserID: "user-1",
		},
		{
			name:    "invalid token",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
			wantErr: true,
		},
		{
			name:    "anonymous",
			prepare: func(r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code, "middleware must not reject requests")
			ctx := WithIdentity(context.Background(), seen)
			userID, err := UserID(ctx)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "invalid token", apierror.Message(err))
				return
			}
			if tt.wantUserID == "" {
				assert.Equal(t, "not authenticated", apierror.Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, userID)
		})
	}
}
