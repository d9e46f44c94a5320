// Package media stores uploaded images and removes them when the record
// referencing them changes or disappears.
package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultFilename is the reserved placeholder picture. It is never deleted.
	DefaultFilename = "Default.png"

	// PublicPrefix is the URL path under which profile media is served.
	PublicPrefix = "/image/profile"

	imagesSegment = "/images/"
)

// ProfileURL builds {protocol}://{host}/image/profile/images/{filename}.
func ProfileURL(protocol, host, filename string) string {
	return fmt.Sprintf("%s://%s%s%s", protocol, host, PublicPrefix+imagesSegment, filename)
}

// DefaultURL is the reference to the placeholder picture.
func DefaultURL(protocol, host string) string {
	return fmt.Sprintf("%s://%s%s/%s", protocol, host, PublicPrefix, DefaultFilename)
}

// FilenameOf extracts the stored filename from a reference: everything after
// the first "/images/" segment. It returns "" when ref carries no segment.
func FilenameOf(ref string) string {
	_, name, ok := strings.Cut(ref, imagesSegment)
	if !ok {
		return ""
	}
	return name
}

// IsDefault reports whether filename is the reserved placeholder.
func IsDefault(filename string) bool {
	return filename == DefaultFilename
}

// validName rejects anything that is not a single path element, and hidden
// names such as in-progress uploads.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
