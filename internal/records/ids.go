package records

import (
	"fmt"
	"regexp"
)

// Host is the fixed record-storage backend every resource URL points at.
const Host = "https://my.living-apps.de/rest"

// IDLength is the size of a backend record identifier (hex characters).
const IDLength = 24

var reTrailingID = regexp.MustCompile(`(?i)([a-f0-9]{24})$`)

// ExtractID returns the trailing 24-hex record id of a resource URL, case preserved.
// ok is false for empty input or when the string does not end in such a run.
func ExtractID(url string) (id string, ok bool) {
	if url == "" {
		return "", false
	}
	m := reTrailingID.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// RecordURL builds the canonical resource URL of a record; ExtractID is its inverse.
func RecordURL(appID, recordID string) string {
	return fmt.Sprintf("%s/apps/%s/records/%s", Host, appID, recordID)
}
