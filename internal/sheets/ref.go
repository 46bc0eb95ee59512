package sheets

import (
	"net/url"
	"regexp"
	"strings"

	pkgerrors "jdk25tracker/internal/errors"
)

var (
	idPath = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	bareID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ParseRef returns the spreadsheet ID in ref, which is either a bare ID or
// a docs.google.com URL. URLs on any other host are rejected.
func ParseRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", pkgerrors.NewValidationError("spreadsheet", ref, "no spreadsheet ID or URL provided")
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if !bareID.MatchString(ref) {
			return "", pkgerrors.NewValidationError("spreadsheet", ref, "not a spreadsheet ID")
		}
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", pkgerrors.NewValidationError("spreadsheet", ref, "invalid URL")
	}
	if u.Host != "docs.google.com" {
		return "", pkgerrors.NewValidationError("spreadsheet", ref, "URL must be on docs.google.com, got "+u.Host)
	}
	m := idPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", pkgerrors.NewValidationError("spreadsheet", ref, "could not extract spreadsheet ID from URL")
	}
	return m[1], nil
}
