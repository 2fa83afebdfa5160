// Package errmsg provides the error taxonomy shared by the catalogue and
// playback layers, and consistent formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalogue operations
	OpCatalogLoad    Op = "load tracks"
	OpCatalogCreate  Op = "create track"
	OpCatalogUpdate  Op = "update track"
	OpCatalogDelete  Op = "delete track"
	OpCatalogReorder Op = "reorder tracks"

	// Remote operations
	OpRemoteList   Op = "list remote tracks"
	OpRemoteGet    Op = "fetch remote track"
	OpRemoteCreate Op = "create remote track"
	OpRemoteUpdate Op = "update remote track"
	OpRemoteDelete Op = "delete remote track"
	OpRemoteSearch Op = "search remote tracks"

	// Local storage operations
	OpCacheRead  Op = "read track cache"
	OpCacheWrite Op = "write track cache"
	OpBlobStore  Op = "store file"
	OpBlobDelete Op = "delete file"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"

	// Lyrics
	OpLyricsFetch Op = "fetch lyrics"

	// Initialization
	OpInitialize Op = "initialize library"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
