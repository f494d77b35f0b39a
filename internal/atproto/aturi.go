package atproto

import (
	"fmt"
	"strings"
)

// ParsedATURI is the three components of an at:// record address.
type ParsedATURI struct {
	DID        string
	Collection string
	RKey       string
}

// ParseATURI splits an AT URI of the form at://{did}/{collection}/{rkey}.
func ParseATURI(uri string) (ParsedATURI, error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return ParsedATURI{}, fmt.Errorf("not an AT URI: %q", uri)
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ParsedATURI{}, fmt.Errorf("malformed AT URI: %q", uri)
	}

	return ParsedATURI{DID: parts[0], Collection: parts[1], RKey: parts[2]}, nil
}

// DIDFromATURI returns the DID component of an AT URI, or "" if malformed.
func DIDFromATURI(uri string) string {
	parsed, err := ParseATURI(uri)
	if err != nil {
		return ""
	}
	return parsed.DID
}
