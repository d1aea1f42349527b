package rpc

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	errMissingBearer = errors.New("missing bearer token")
	errInvalidBearer = errors.New("invalid bearer token")
)

// Authenticator guards mutating RPC methods. It accepts either the static
// bearer token or, when an HMAC secret is configured, a signed JWT carrying
// that secret. With neither configured, mutating methods are open; that
// mode is for local development only.
type Authenticator struct {
	token  string
	secret []byte
}

func NewAuthenticator(token, jwtSecret string) *Authenticator {
	auth := &Authenticator{token: token}
	if jwtSecret != "" {
		auth.secret = []byte(jwtSecret)
	}
	return auth
}

func (a *Authenticator) enabled() bool {
	return a != nil && (a.token != "" || len(a.secret) > 0)
}

// Require validates the Authorization header against the configured
// credentials. A nil return means the request may proceed.
func (a *Authenticator) Require(r *http.Request) error {
	if !a.enabled() {
		return nil
	}
	bearer := extractBearer(r.Header.Get("Authorization"))
	if bearer == "" {
		return errMissingBearer
	}
	if a.token != "" && subtle.ConstantTimeCompare([]byte(bearer), []byte(a.token)) == 1 {
		return nil
	}
	if len(a.secret) > 0 {
		if err := a.validateJWT(bearer); err == nil {
			return nil
		}
	}
	return errInvalidBearer
}

func (a *Authenticator) validateJWT(tokenString string) error {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("token invalid")
	}
	return nil
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
