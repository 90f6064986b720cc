package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameLength = 64
	maxPathLength = 500
)

// namePattern admits identifiers that are safe inside a path segment such
// as themes/<name>-vars.json.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateName checks a component or theme name and reports failures with
// the caller's code; kind ("theme", "component") prefixes the message.
func ValidateName(code Code, kind, name string) error {
	switch {
	case name == "":
		return New(code, "%s name cannot be empty", kind)
	case len(name) > maxNameLength:
		return New(code, "%s name too long (max %d characters)", kind, maxNameLength)
	case !namePattern.MatchString(name):
		return New(code, "invalid %s name: %q", kind, name)
	}
	return nil
}

// ValidatePath checks a resource path before it is joined to a base URL.
// Paths may be absolute; they may not climb out of the base with a ".."
// segment, use backslashes or contain control characters.
func ValidatePath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}
	if strings.ContainsFunc(p, unicode.IsControl) {
		return New(ErrCodeInvalidPath, "path contains control characters")
	}
	if strings.ContainsRune(p, '\\') {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	for seg := range strings.SplitSeq(p, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain '..' segments")
		}
	}
	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host")
	}
	return nil
}
