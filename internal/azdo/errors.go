package azdo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTagsConflict is returned when an update sets System.Tags directly and
// also adds or removes tags.
var ErrTagsConflict = errors.New("System.Tags cannot be set in fields together with add_tags or remove_tags")

// BackendRequestError is returned for every non-2xx response, whatever the
// operation. Body holds the raw response text.
type BackendRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *BackendRequestError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.URL, e.StatusCode, strings.TrimSpace(e.Body))
}

// HasCode reports whether the backend message carries the given TFxxxxx code.
func (e *BackendRequestError) HasCode(code string) bool {
	return strings.Contains(e.Body, code)
}

// ScopingError means an operation needed a project or repository and neither
// an argument nor a connection default supplied one.
type ScopingError struct {
	// Missing is "project" or "repository".
	Missing string
}

func (e *ScopingError) Error() string {
	env := "AZDO_PROJECT"
	if e.Missing == "repository" {
		env = "AZDO_REPOSITORY"
	}
	return fmt.Sprintf("%s is required (set %s or pass %s)", capitalize(e.Missing), env, e.Missing)
}

// ConcurrencyResolutionError means a conditional wiki update could not find
// the page's current version token.
type ConcurrencyResolutionError struct {
	Wiki string
	Path string
}

func (e *ConcurrencyResolutionError) Error() string {
	return fmt.Sprintf("unable to determine current version of wiki page %q in %q; pass version explicitly", e.Path, e.Wiki)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
