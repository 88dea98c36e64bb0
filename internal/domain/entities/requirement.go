package entities

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	pinSeparator = "=="

	// specifierChars end a package name in a requirement token.
	specifierChars = "<>=!~;[@ ,("
)

var (
	// validName follows the PEP 508 distribution name grammar.
	validName = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

	nameSeparators = regexp.MustCompile(`[-_.]+`)
)

// Requirement is a Python package pinned (or to be pinned) to one version.
type Requirement struct {
	Name    string // Normalized distribution name
	Version string // Exact version, empty until resolved for bare names
}

// IsPinned reports whether the version is known.
func (r Requirement) IsPinned() bool {
	return r.Version != ""
}

// String renders the requirement the way a requirements file expects it.
func (r Requirement) String() string {
	if !r.IsPinned() {
		return r.Name
	}
	return r.Name + pinSeparator + r.Version
}

// NormalizePackageName applies PEP 503 normalization so that "Flask",
// "flask" and "FLASK" compare equal, as do "zope.interface" and
// "zope-interface".
func NormalizePackageName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ParseRequirement turns a single whitespace-free token from a requirements
// file into a Requirement. The boolean is false for tokens that carry no
// package at all (comments, pip options).
//
// Tokens of the form "name==version" keep the version literally. Any other
// token is reduced to its bare name (extras and other specifiers dropped)
// and must be resolved against the public index later.
func ParseRequirement(token string) (Requirement, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, "#") || strings.HasPrefix(token, "-") {
		return Requirement{}, false, nil
	}

	if idx := strings.Index(token, pinSeparator); idx > 0 {
		name := stripSpecifiers(token[:idx])
		version := strings.TrimPrefix(token[idx+len(pinSeparator):], "=")
		if cut := strings.IndexAny(version, ";,"); cut >= 0 {
			version = version[:cut]
		}
		version = strings.TrimSpace(version)
		if version == "" {
			return Requirement{}, true, fmt.Errorf("%w: %q has an empty version", ErrInvalidRequirement, token)
		}
		if !validName.MatchString(name) {
			return Requirement{}, true, fmt.Errorf("%w: %q has an invalid name", ErrInvalidRequirement, token)
		}
		return Requirement{Name: NormalizePackageName(name), Version: version}, true, nil
	}

	name := stripSpecifiers(token)
	if !validName.MatchString(name) {
		return Requirement{}, true, fmt.Errorf("%w: %q has an invalid name", ErrInvalidRequirement, token)
	}
	return Requirement{Name: NormalizePackageName(name)}, true, nil
}

func stripSpecifiers(token string) string {
	if idx := strings.IndexAny(token, specifierChars); idx >= 0 {
		return token[:idx]
	}
	return token
}

// RequirementsFileName is the name of the file handed to the scan job for
// a given commit. The commit id must be a single non-empty path segment.
func RequirementsFileName(commitID string) (string, error) {
	if err := ValidateCommitID(commitID); err != nil {
		return "", err
	}
	return fmt.Sprintf("requirements-%s.txt", commitID), nil
}

// ValidateCommitID rejects empty ids and ids that could leave the object
// prefix (path separators or "..").
func ValidateCommitID(commitID string) error {
	if strings.TrimSpace(commitID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCommitID)
	}
	if strings.ContainsAny(commitID, "/\\") || strings.Contains(commitID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCommitID, commitID)
	}
	return nil
}

// RequirementsObjectKey joins the storage prefix and the file name.
func RequirementsObjectKey(prefix, fileName string) string {
	if prefix == "" {
		return fileName
	}
	return strings.TrimSuffix(prefix, "/") + "/" + fileName
}

// RenderRequirements writes one "name==version" line per requirement.
func RenderRequirements(requirements []Requirement) []byte {
	var sb strings.Builder
	for _, r := range requirements {
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}

// RequirementStrings renders each requirement with String.
func RequirementStrings(requirements []Requirement) []string {
	result := make([]string, 0, len(requirements))
	for _, r := range requirements {
		result = append(result, r.String())
	}
	return result
}
