package azdo

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/Azure/go-ntlmssp"

	"github.com/HendryAvila/azdo-mcp/internal/config"
)

// AuthStrategy produces request credentials for one connection.
//
// Authorize is applied to every outgoing request; Transport lets a strategy
// that needs a handshake wrap the underlying round tripper.
type AuthStrategy interface {
	Authorize(req *http.Request)
	Transport(base http.RoundTripper) http.RoundTripper
}

// newAuthStrategy selects the strategy for the connection's auth kind.
func newAuthStrategy(conn config.Connection) (AuthStrategy, error) {
	switch conn.Auth {
	case config.AuthToken:
		return newTokenAuth(conn.Credentials.Token), nil
	case config.AuthChallenge:
		return newChallengeAuth(conn.Credentials), nil
	default:
		return nil, &config.ConfigurationError{
			Field:   "AZDO_AUTH_TYPE",
			Message: fmt.Sprintf("invalid auth type %q: must be one of: pat, ntlm", conn.Auth),
		}
	}
}

// tokenAuth sends a personal access token as the password of basic auth.
// The user name is ignored by the backend and left empty.
type tokenAuth struct {
	header string
}

func newTokenAuth(token string) *tokenAuth {
	encoded := base64.StdEncoding.EncodeToString([]byte(":" + token))
	return &tokenAuth{header: "Basic " + encoded}
}

func (a *tokenAuth) Authorize(req *http.Request) {
	req.Header.Set("Authorization", a.header)
}

func (a *tokenAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return base
}

// challengeAuth negotiates NTLM. The negotiator reads the basic credentials
// set by Authorize and turns them into the challenge-response exchange.
type challengeAuth struct {
	user     string
	password string
}

func newChallengeAuth(creds config.Credentials) *challengeAuth {
	user := creds.Username
	if creds.Domain != "" {
		user = creds.Domain + `\` + creds.Username
	}
	return &challengeAuth{user: user, password: creds.Password}
}

func (a *challengeAuth) Authorize(req *http.Request) {
	req.SetBasicAuth(a.user, a.password)
}

func (a *challengeAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return ntlmssp.Negotiator{RoundTripper: base}
}
