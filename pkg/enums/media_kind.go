package enums

import "fmt"

// MediaKind classifies a work order attachment.
type MediaKind string

const (
	MediaKindReferenceImage MediaKind = "reference_image"
	MediaKindCADFile        MediaKind = "cad_file"
	MediaKindProgressPhoto  MediaKind = "progress_photo"
	MediaKindOther          MediaKind = "other"
)

var validMediaKinds = []MediaKind{
	MediaKindReferenceImage,
	MediaKindCADFile,
	MediaKindProgressPhoto,
	MediaKindOther,
}

// String returns the literal string for the kind.
func (k MediaKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known MediaKind.
func (k MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}
