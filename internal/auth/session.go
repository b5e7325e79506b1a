package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vastralaya/storefront/internal/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	customerIDCtxKey  = ctxKey("customerID")
)

// CustomerVerifier is an optional callback to validate that a session's
// customer still exists. Set it during app bootstrap via
// SetCustomerVerifier. If nil, no extra verification is performed.
type CustomerVerifier func(ctx context.Context, id uint) bool

var verifier CustomerVerifier

// SetCustomerVerifier configures the global verifier used by RequireCustomer.
func SetCustomerVerifier(v CustomerVerifier) { verifier = v }

// SessionSecret returns SESSION_SECRET or default dev value.
func SessionSecret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(SessionSecret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie with the customer id.
func CreateSession(w http.ResponseWriter, customerID uint) {
	idStr := strconv.FormatUint(uint64(customerID), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    idStr + "." + sign(idStr),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie signature and returns the customer id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return 0, false
	}
	idStr, sig := parts[0], parts[1]
	if !hmac.Equal([]byte(sig), []byte(sign(idStr))) {
		return 0, false
	}
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// WithCustomerID stores the customer id in context.
func WithCustomerID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, customerIDCtxKey, id)
}

// CustomerIDFromContext extracts the customer id.
func CustomerIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(customerIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Middleware attaches the customer id to the request context if a valid
// session cookie is present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := ParseSession(r); ok {
			r = r.WithContext(WithCustomerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCustomer rejects requests without a valid customer session.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := CustomerIDFromContext(r.Context())
		if !ok || id == 0 {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if verifier != nil && !verifier(r.Context(), id) {
			// Session refers to a deleted customer: clear and reject.
			ClearSession(w)
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
