package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/llehouerou/trackvault/internal/blob"
	"github.com/llehouerou/trackvault/internal/track"
)

// Codec names a supported container.
type Codec string

const (
	CodecMP3  Codec = "mp3"
	CodecWAV  Codec = "wav"
	CodecOgg  Codec = "ogg"
	CodecNone Codec = ""
)

// ErrUnsupportedFormat is returned when neither the content nor the locator
// identifies a decodable format.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// maxFetchBytes bounds remote downloads. Slightly above the audio upload
// ceiling so a valid file is never truncated.
const maxFetchBytes = blob.MaxAudioSize + 1<<20

// memFile is an in-memory io.ReadSeekCloser.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// Fetch reads the whole resource behind locator. Locators are file:// blob
// locators, http(s) URLs or plain filesystem paths.
func Fetch(ctx context.Context, client *http.Client, locator string) ([]byte, error) {
	switch track.SourceOf(locator) {
	case track.SourceNone:
		return nil, errors.New("empty locator")
	case track.SourceRemote:
		return fetchHTTP(ctx, client, locator)
	case track.SourceLocal:
	}

	p, ok := blob.PathFromLocator(locator)
	if !ok {
		p = locator
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func fetchHTTP(ctx context.Context, client *http.Client, locator string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", locator, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxFetchBytes {
		return nil, fmt.Errorf("fetch %s: resource larger than %d bytes", locator, maxFetchBytes)
	}
	return data, nil
}

// Detect identifies the codec from magic bytes, falling back to the
// locator's extension.
func Detect(locator string, data []byte) Codec {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return CodecWAV
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return CodecOgg
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return CodecMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return CodecMP3
	}

	switch extOf(locator) {
	case ".mp3":
		return CodecMP3
	case ".wav":
		return CodecWAV
	case ".ogg", ".oga":
		return CodecOgg
	default:
		return CodecNone
	}
}

func extOf(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

// Decode turns an in-memory resource into a seekable stream.
func Decode(locator string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	src := memFile{bytes.NewReader(data)}

	switch Detect(locator, data) {
	case CodecMP3:
		return decodeMP3(src)
	case CodecWAV:
		return wav.Decode(src)
	case CodecOgg:
		return vorbis.Decode(src)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}

// ProbeDuration decodes the file at path far enough to report its length.
func ProbeDuration(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s, format, err := Decode(path, data)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	defer s.Close()
	return format.SampleRate.D(s.Len()), nil
}
