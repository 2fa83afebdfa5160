package track

import "strings"

// Source classifies a media locator.
type Source int

const (
	SourceNone Source = iota
	SourceRemote
	SourceLocal
)

// LocalScheme prefixes locators that point into the local blob store.
const LocalScheme = "file://"

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceRemote:
		return "remote"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// SourceOf classifies a locator. Remote locators are http(s) URLs; any other
// non-empty locator refers to local storage.
func SourceOf(locator string) Source {
	loc := strings.TrimSpace(locator)
	switch {
	case loc == "":
		return SourceNone
	case hasPrefixFold(loc, "http://"), hasPrefixFold(loc, "https://"):
		return SourceRemote
	default:
		return SourceLocal
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
