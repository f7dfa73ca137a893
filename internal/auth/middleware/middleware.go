package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/feedbackbank/internal/rbac"
)

const issuer = "feedbackbank"

var ErrInvalidToken = errors.New("invalid token")

type AuthService struct {
	hmac         []byte
	ttl          time.Duration
	passcodeHash []byte
	now          func() time.Time
}

// NewAuthService builds the editor gate. passcodeHash is a bcrypt hash;
// when empty, every passcode is rejected.
func NewAuthService(secret string, ttl time.Duration, passcodeHash string) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{
		hmac:         []byte(secret),
		ttl:          ttl,
		passcodeHash: []byte(passcodeHash),
		now:          time.Now,
	}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "editor" or "grader"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := a.now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// CheckPasscode compares pass against the configured bcrypt hash.
func (a *AuthService) CheckPasscode(pass string) bool {
	if len(a.passcodeHash) == 0 || pass == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passcodeHash, []byte(pass)) == nil
}

// POST /auth/passcode  { "passcode": "..." }
func PasscodeHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Passcode string `json:"passcode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid JSON body"})
			return
		}
		if !a.CheckPasscode(req.Passcode) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Incorrect passcode"})
			return
		}
		tok, err := a.IssueJWT(rbac.RoleEditor, rbac.RoleEditor)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "issue token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": tok})
	}
}

// JWTMiddleware puts the token's role in the request context. Requests
// without a bearer token get anonRole; a bad token is rejected with 401.
func JWTMiddleware(a *AuthService, anonRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(r.Context(), anonRole)))
				return
			}
			if !strings.HasPrefix(h, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "missing bearer"})
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "bad token"})
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
