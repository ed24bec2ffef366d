// Package config produces the Connection every Azure DevOps client is built from.
//
// A Connection is a plain value: it is loaded fresh for each tool call and
// never cached, so configuration changes are picked up without a restart.
package config

import (
	"fmt"
	"strings"
	"time"
)

// --- Auth kind enum ---

// AuthKind selects how requests are authenticated.
type AuthKind string

const (
	// AuthToken sends a personal access token as basic auth.
	AuthToken AuthKind = "pat"
	// AuthChallenge performs an NTLM challenge-response handshake.
	AuthChallenge AuthKind = "ntlm"
)

// Defaults applied when a setting is absent.
const (
	DefaultAPIVersion = "7.0"
	DefaultTimeout    = 30 * time.Second
)

// Credentials is the secret material paired with an AuthKind.
// Token is used by AuthToken; Username, Password and Domain by AuthChallenge.
type Credentials struct {
	Token    string
	Username string
	Password string
	Domain   string
}

// Connection describes one backend deployment and how to reach it.
type Connection struct {
	// BaseURL is the server root, e.g. https://tfs.company.local/tfs.
	BaseURL string
	// Collection is appended to BaseURL when set (on-prem DefaultCollection).
	Collection string

	DefaultProject    string
	DefaultRepository string

	// APIVersion is sent as api-version on every request unless the
	// operation supplies its own.
	APIVersion string

	Auth        AuthKind
	Credentials Credentials

	// VerifyTLS disables certificate verification when false.
	VerifyTLS bool
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration
}

// ConfigurationError reports a missing or invalid connection setting.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Message)
}

// Validate checks that the connection is usable. It returns a
// *ConfigurationError naming the first offending setting.
func (c Connection) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return &ConfigurationError{
			Field:   "AZDO_BASE_URL",
			Message: "base URL is required (e.g. https://tfs.company.local/tfs or https://devops.company.local/tfs/DefaultCollection)",
		}
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		return &ConfigurationError{Field: "AZDO_API_VERSION", Message: "api version must not be empty"}
	}

	switch c.Auth {
	case AuthToken:
		if c.Credentials.Token == "" {
			return &ConfigurationError{Field: "AZDO_PAT", Message: "a personal access token is required when AZDO_AUTH_TYPE=pat"}
		}
	case AuthChallenge:
		if c.Credentials.Username == "" || c.Credentials.Password == "" {
			return &ConfigurationError{
				Field:   "AZDO_NTLM_USERNAME",
				Message: "AZDO_NTLM_USERNAME and AZDO_NTLM_PASSWORD are required when AZDO_AUTH_TYPE=ntlm",
			}
		}
	default:
		return &ConfigurationError{
			Field:   "AZDO_AUTH_TYPE",
			Message: fmt.Sprintf("invalid auth type %q: must be one of: pat, ntlm", c.Auth),
		}
	}
	return nil
}

// Redacted returns a display-safe view of the connection with secrets masked.
func (c Connection) Redacted() map[string]any {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out := map[string]any{
		"base_url":           c.BaseURL,
		"collection":         c.Collection,
		"default_project":    c.DefaultProject,
		"default_repository": c.DefaultRepository,
		"api_version":        c.APIVersion,
		"auth_type":          string(c.Auth),
		"verify_ssl":         c.VerifyTLS,
		"timeout":            c.Timeout.String(),
	}
	switch c.Auth {
	case AuthToken:
		out["pat"] = mask(c.Credentials.Token)
	case AuthChallenge:
		out["ntlm_username"] = c.Credentials.Username
		out["ntlm_domain"] = c.Credentials.Domain
		out["ntlm_password"] = mask(c.Credentials.Password)
	}
	return out
}
