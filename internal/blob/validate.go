package blob

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// Kind distinguishes the binaries a track can own.
type Kind string

const (
	KindAudio Kind = "audio"
	KindCover Kind = "cover"
)

// Kinds lists every blob kind.
var Kinds = []Kind{KindAudio, KindCover}

// Size ceilings, inclusive.
const (
	MaxAudioSize int64 = 10 * 1024 * 1024
	MaxCoverSize int64 = 5 * 1024 * 1024
)

type rules struct {
	types      []string
	extensions []string
	maxSize    int64
	label      string
}

var kindRules = map[Kind]rules{
	KindAudio: {
		types:      []string{"audio/mpeg", "audio/wav", "audio/ogg"},
		extensions: []string{".mp3", ".wav", ".ogg"},
		maxSize:    MaxAudioSize,
		label:      "audio file",
	},
	KindCover: {
		types:      []string{"image/png", "image/jpeg", "image/jpg"},
		extensions: []string{".png", ".jpeg", ".jpg"},
		maxSize:    MaxCoverSize,
		label:      "cover image",
	},
}

// ValidationResult is the outcome of Validate. A bad file is reported here,
// never as an error.
type ValidationResult struct {
	Valid bool
	Error string
}

// Validate checks a file against the allow-list and size ceiling of kind.
// The MIME type is checked first; the file extension is the fallback for
// environments that report an empty or generic type.
func Validate(f File, kind Kind) ValidationResult {
	r, ok := kindRules[kind]
	if !ok {
		return ValidationResult{Error: fmt.Sprintf("unknown file kind %q", kind)}
	}
	if f.Name == "" && f.Type == "" {
		return ValidationResult{Error: "no " + r.label + " selected"}
	}

	mimeOK := slices.Contains(r.types, normalizeType(f.Type))
	extOK := slices.Contains(r.extensions, strings.ToLower(filepath.Ext(f.Name)))
	if !mimeOK && !extOK {
		return ValidationResult{Error: fmt.Sprintf(
			"unsupported %s format, accepted: %s",
			r.label, strings.Join(r.extensions, ", "),
		)}
	}

	if f.Size < 0 {
		return ValidationResult{Error: "invalid " + r.label + " size"}
	}
	if f.Size > r.maxSize {
		return ValidationResult{Error: fmt.Sprintf(
			"%s too large (%s), maximum is %s",
			r.label, humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(r.maxSize)),
		)}
	}
	return ValidationResult{Valid: true}
}

// MaxSize returns the size ceiling of kind.
func MaxSize(kind Kind) int64 {
	return kindRules[kind].maxSize
}

// extensionFor picks the stored file extension: the original one when it is
// allowed, otherwise the first extension matching the MIME type.
func extensionFor(f File, kind Kind) string {
	r := kindRules[kind]
	ext := strings.ToLower(filepath.Ext(f.Name))
	if slices.Contains(r.extensions, ext) {
		return ext
	}
	switch normalizeType(f.Type) {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	return ""
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}
