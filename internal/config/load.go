package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys. Each maps to an AZDO_-prefixed environment variable and to
// the same key in the optional YAML config file.
const (
	keyBaseURL      = "base_url"
	keyCollection   = "collection"
	keyProject      = "project"
	keyRepository   = "repository"
	keyAPIVersion   = "api_version"
	keyAuthType     = "auth_type"
	keyPAT          = "pat"
	keyNTLMUser     = "ntlm_username"
	keyNTLMPassword = "ntlm_password"
	keyNTLMDomain   = "ntlm_domain"
	keyVerifySSL    = "verify_ssl"
	keyTimeout      = "timeout"
	keyUseKeyring   = "use_keyring"
	keyLogLevel     = "log_level"
	keyOTelExporter = "otel_exporter"
)

var allKeys = []string{
	keyBaseURL, keyCollection, keyProject, keyRepository, keyAPIVersion,
	keyAuthType, keyPAT, keyNTLMUser, keyNTLMPassword, keyNTLMDomain,
	keyVerifySSL, keyTimeout, keyUseKeyring, keyLogLevel,
	keyOTelExporter,
}

// Loader reads connection settings from the environment, an optional YAML
// file and, when enabled, the system keyring. Environment values win over
// the file.
type Loader struct {
	// ConfigFile is an optional YAML file path. Empty means env only.
	ConfigFile string
	// Secrets is consulted for missing secrets when use_keyring is true.
	// Nil disables keyring lookups.
	Secrets SecretSource
}

// NewLoader creates a Loader backed by the system keyring.
func NewLoader(configFile string) *Loader {
	return &Loader{ConfigFile: configFile, Secrets: NewKeyringSource(KeyringService)}
}

// newViper builds a fresh viper instance for one load. Viper is not shared
// between calls so each tool invocation sees the current environment.
func (l *Loader) newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AZDO")
	for _, k := range allKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", k, err)
		}
	}

	v.SetDefault(keyAPIVersion, DefaultAPIVersion)
	v.SetDefault(keyAuthType, string(AuthToken))
	v.SetDefault(keyVerifySSL, "true")
	v.SetDefault(keyTimeout, DefaultTimeout.String())
	v.SetDefault(keyUseKeyring, "false")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyOTelExporter, "none")

	path := l.ConfigFile
	if path == "" {
		path = os.Getenv("AZDO_CONFIG")
	}
	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, &ConfigurationError{Field: "AZDO_CONFIG", Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return v, nil
}

// Connection loads and validates a Connection.
func (l *Loader) Connection() (Connection, error) {
	v, err := l.newViper()
	if err != nil {
		return Connection{}, err
	}

	conn := Connection{
		BaseURL:           strings.TrimRight(strings.TrimSpace(v.GetString(keyBaseURL)), "/"),
		Collection:        strings.Trim(strings.TrimSpace(v.GetString(keyCollection)), "/"),
		DefaultProject:    strings.TrimSpace(v.GetString(keyProject)),
		DefaultRepository: strings.TrimSpace(v.GetString(keyRepository)),
		APIVersion:        strings.TrimSpace(v.GetString(keyAPIVersion)),
		Auth:              AuthKind(strings.ToLower(strings.TrimSpace(v.GetString(keyAuthType)))),
		Credentials: Credentials{
			Token:    v.GetString(keyPAT),
			Username: v.GetString(keyNTLMUser),
			Password: v.GetString(keyNTLMPassword),
			Domain:   v.GetString(keyNTLMDomain),
		},
		VerifyTLS: truthy(v.GetString(keyVerifySSL)),
		Timeout:   v.GetDuration(keyTimeout),
	}
	if conn.Timeout <= 0 {
		conn.Timeout = DefaultTimeout
	}

	if truthy(v.GetString(keyUseKeyring)) && l.Secrets != nil {
		if err := l.fillSecrets(&conn); err != nil {
			return Connection{}, err
		}
	}

	if err := conn.Validate(); err != nil {
		return Connection{}, err
	}
	return conn, nil
}

// fillSecrets looks up the secret for the selected auth kind when it was
// not supplied directly. A missing keyring entry is not an error here;
// Validate reports the missing setting.
func (l *Loader) fillSecrets(conn *Connection) error {
	var key string
	var dst *string
	switch conn.Auth {
	case AuthToken:
		key, dst = keyPAT, &conn.Credentials.Token
	case AuthChallenge:
		key, dst = keyNTLMPassword, &conn.Credentials.Password
	default:
		return nil
	}
	if *dst != "" {
		return nil
	}

	secret, err := l.Secrets.Secret(key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return nil
		}
		return &ConfigurationError{Field: "AZDO_USE_KEYRING", Message: err.Error()}
	}
	*dst = secret
	return nil
}

// LogLevel returns the configured log level, defaulting to info.
func (l *Loader) LogLevel() slog.Level {
	v, err := l.newViper()
	if err != nil {
		return slog.LevelInfo
	}
	return ParseLogLevel(v.GetString(keyLogLevel))
}

// OTelExporter returns the trace exporter name (none or stdout), lower-cased.
func (l *Loader) OTelExporter() string {
	v, err := l.newViper()
	if err != nil {
		return "none"
	}
	return strings.ToLower(strings.TrimSpace(v.GetString(keyOTelExporter)))
}

// ParseLogLevel maps debug|info|warn|error to a slog level. Unknown values
// yield info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
