package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vastralaya/storefront/internal/httpx"
)

// Retailer access uses a server-signed bearer token carrying a role
// claim, distinct from the customer cookie session. The role and
// expiry are verified on every retailer-scoped call.

const retailerRole = "retailer"

const retailerTokenTTL = 24 * time.Hour

type RetailerClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RetailerTokenSecret returns RETAILER_TOKEN_SECRET or default dev value.
func RetailerTokenSecret() string {
	if s := os.Getenv("RETAILER_TOKEN_SECRET"); s != "" {
		return s
	}
	return "devretailersecret"
}

// IssueRetailerToken signs a retailer token for the given account email.
func IssueRetailerToken(email string) (token string, expiresAt time.Time, err error) {
	expiresAt = time.Now().Add(retailerTokenTTL)
	claims := &RetailerClaims{
		Email: email,
		Role:  retailerRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = tkn.SignedString([]byte(RetailerTokenSecret()))
	return token, expiresAt, err
}

var errInvalidRetailerToken = errors.New("invalid retailer token")

// ParseRetailerToken verifies signature, expiry, and the role claim.
func ParseRetailerToken(raw string) (*RetailerClaims, error) {
	claims := &RetailerClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidRetailerToken
		}
		return []byte(RetailerTokenSecret()), nil
	})
	if err != nil || !tkn.Valid {
		return nil, errInvalidRetailerToken
	}
	if claims.Role != retailerRole {
		return nil, errInvalidRetailerToken
	}
	return claims, nil
}

// RetailerFromRequest extracts and verifies the bearer token.
func RetailerFromRequest(r *http.Request) (*RetailerClaims, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil, false
	}
	claims, err := ParseRetailerToken(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireRetailer rejects requests without a valid retailer token.
func RequireRetailer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := RetailerFromRequest(r); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
